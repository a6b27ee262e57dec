package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/LeTienDat/ViralCut/internal/pkg/payment"
)

// HandleWebhook receives gateway notifications. The raw body is passed
// through untouched so signatures verify against exactly what was sent.
// Any verification or processing failure answers 400 so the gateway
// retries; duplicates answer 200 without reprocessing.
func HandleWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")
	payload := c.Body()

	signature := webhookSignature(c, provider)

	if err := paymentService.HandleWebhook(c.Context(), provider, payload, signature); err != nil {
		if errors.Is(err, payment.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown payment provider"})
		}
		fiberlog.Warnf("[Webhook] Rejected %s notification: %v", provider, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "webhook rejected"})
	}
	return c.JSON(fiber.Map{"received": true})
}

// webhookSignature extracts the provider's verification material. Stripe
// signs via a single header, PayPal spreads the transmission proof over
// five headers which are bundled as JSON, and MomoPay embeds the signature
// in the payload itself.
func webhookSignature(c *fiber.Ctx, provider string) string {
	switch provider {
	case payment.ProviderStripe:
		return c.Get("Stripe-Signature")
	case payment.ProviderPayPal:
		headers := map[string]string{
			"transmission_id":   c.Get("Paypal-Transmission-Id"),
			"transmission_time": c.Get("Paypal-Transmission-Time"),
			"transmission_sig":  c.Get("Paypal-Transmission-Sig"),
			"cert_url":          c.Get("Paypal-Cert-Url"),
			"auth_algo":         c.Get("Paypal-Auth-Algo"),
		}
		b, _ := json.Marshal(headers)
		return string(b)
	default:
		return ""
	}
}
