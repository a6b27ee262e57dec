package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LeTienDat/ViralCut/app/controllers"
	"github.com/LeTienDat/ViralCut/app/repository"
	"github.com/LeTienDat/ViralCut/internal/pkg/analysis"
	"github.com/LeTienDat/ViralCut/internal/pkg/cache"
	"github.com/LeTienDat/ViralCut/internal/pkg/database"
	"github.com/LeTienDat/ViralCut/internal/pkg/env"
	"github.com/LeTienDat/ViralCut/internal/pkg/jobqueue"
	"github.com/LeTienDat/ViralCut/internal/pkg/payment"
	"github.com/LeTienDat/ViralCut/internal/pkg/pipeline"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
	"github.com/LeTienDat/ViralCut/internal/pkg/quota"
	"github.com/LeTienDat/ViralCut/internal/pkg/renderer"
	"github.com/LeTienDat/ViralCut/internal/pkg/router"
	"github.com/LeTienDat/ViralCut/internal/pkg/s3backup"
)

func main() {
	app := NewApplication()

	// Graceful shutdown: drain the job queue before the listener closes.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		fiberlog.Info("[App] Shutting down")
		jobqueue.GetManager().Stop()
		if err := app.Shutdown(); err != nil {
			fiberlog.Errorf("[App] Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	oracle := quota.NewOracle(repos.Subscription, repos.Video)
	analyzer := analysis.NewClient(
		env.GetEnv("OPENAI_API_KEY", ""),
		env.GetEnv("OPENAI_MODEL", ""),
		env.GetEnv("OPENAI_BASE_URL", ""),
	)
	encoder := renderer.New(env.GetEnv("FFMPEG_PATH", ""), env.GetEnv("FFPROBE_PATH", ""))
	statusStore := pipeline.NewStatusStore()
	pipe := pipeline.New(
		repos.Video, repos.Analysis, repos.Segment,
		analyzer, encoder, oracle, statusStore,
		env.GetEnv("CLIP_OUTPUT_DIR", ""),
	)

	backupCfg, err := s3backup.LoadConfig()
	if err != nil {
		log.Fatalf("invalid S3 backup configuration: %v", err)
	}
	var backupClient *s3backup.Client
	if backupCfg.IsEnabled() {
		backupClient, err = s3backup.NewClient(backupCfg)
		if err != nil {
			log.Fatalf("S3 backup client: %v", err)
		}
		fiberlog.Info("[App] S3 clip backup enabled")
	}

	jobqueue.InitializeManager(jobqueue.Deps{
		Pipeline:     pipe,
		Backup:       backupClient,
		BackupConfig: backupCfg,
	}).Start()

	controllers.Setup(controllers.Config{
		Pipeline:      pipe,
		Status:        statusStore,
		Oracle:        oracle,
		Analyzer:      analyzer,
		Renderer:      encoder,
		Payments:      payment.NewServiceFromEnv(repos),
		UploadDir:     env.GetEnv("UPLOAD_DIR", "./uploads/videos"),
		BackupEnabled: backupClient != nil,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: plans.MaxFileSize + 1024*1024,
	})

	app.Use(recover.New(), logger.New())
	installMetrics(app)

	router.InstallRouter(app)

	return app
}

// installMetrics exposes the fiber process monitor behind basic auth.
func installMetrics(app *fiber.App) {
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())
}
