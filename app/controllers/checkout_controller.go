package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/LeTienDat/ViralCut/internal/pkg/payment"
)

var validate = validator.New()

// HandlePaymentProviders lists the gateways available for a region, in
// preference order.
func HandlePaymentProviders(c *fiber.Ctx) error {
	region := c.Query("region")
	return c.JSON(payment.ProvidersPayload(region))
}

type checkoutRequest struct {
	PlanID    string `json:"plan_id" validate:"required"`
	Email     string `json:"owner" validate:"required,email"`
	Region    string `json:"region"`
	Provider  string `json:"provider" validate:"omitempty,oneof=stripe paypal momopay"`
	OriginURL string `json:"origin_url" validate:"omitempty,url"`
	Currency  string `json:"currency" validate:"omitempty,oneof=usd vnd"`
}

// HandleCreateCheckout opens a checkout session with the best gateway for
// the buyer's region and records the pending transaction.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := paymentService.CreateCheckout(c.Context(), payment.CheckoutRequest{
		Email:     strings.TrimSpace(req.Email),
		PlanID:    req.PlanID,
		Region:    req.Region,
		Provider:  req.Provider,
		OriginURL: req.OriginURL,
		Currency:  req.Currency,
	})
	if err != nil {
		fiberlog.Errorf("[Checkout] Failed for plan %s: %v", req.PlanID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "checkout could not be created"})
	}
	return c.JSON(session)
}

// HandlePaymentStatus queries the gateway for a session and reconciles the
// local transaction before answering.
func HandlePaymentStatus(c *fiber.Ctx) error {
	provider := c.Params("provider")
	sessionID := c.Params("session")

	status, err := paymentService.PaymentStatus(c.Context(), provider, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownProvider) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown payment provider"})
		}
		fiberlog.Errorf("[Checkout] Status query %s/%s failed: %v", provider, sessionID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "status unavailable"})
	}
	return c.JSON(fiber.Map{
		"provider":   provider,
		"session_id": sessionID,
		"status":     status,
	})
}
