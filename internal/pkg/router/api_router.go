package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/LeTienDat/ViralCut/app/controllers"
	"github.com/LeTienDat/ViralCut/internal/pkg/cache"
	"github.com/LeTienDat/ViralCut/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ViralCut API",
		})
	})

	// Video processing
	api.Post("/upload-video", controllers.HandleUploadVideo)
	api.Post("/video/analyze", controllers.HandleAnalyzeVideo)
	api.Get("/processing-status/:id", controllers.HandleProcessingStatus)
	api.Get("/video-analysis/:id", controllers.HandleVideoAnalysis)
	api.Get("/video-segments/:id", controllers.HandleVideoSegments)
	api.Get("/video-list", controllers.HandleVideoList)
	api.Get("/download-segment/:id/:index", controllers.HandleDownloadSegment)
	api.Delete("/video/:id", controllers.HandleDeleteVideo)
	api.Get("/upload-limits", controllers.HandleUploadLimits)

	// Plans and entitlements
	api.Get("/premium-plans", controllers.HandlePremiumPlans)
	api.Post("/premium-status", controllers.HandlePremiumStatus)
	api.Post("/usage-status", controllers.HandleUsageStatus)

	// Payments
	api.Get("/payment-providers", controllers.HandlePaymentProviders)
	api.Post("/create-checkout", controllers.HandleCreateCheckout)
	api.Get("/payment-status/:provider/:session", controllers.HandlePaymentStatus)
	api.Post("/webhook/:provider", controllers.HandleWebhook)
}

// newLimiterStorage backs the rate limiter with the shared Redis so counts
// hold across instances. Uses database 1, the cache itself runs on 0.
func newLimiterStorage() *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
