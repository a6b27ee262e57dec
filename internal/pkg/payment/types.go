// Package payment routes checkouts to regional payment providers and keeps
// transactions and subscriptions reconciled with provider webhooks.
package payment

import (
	"context"
	"errors"
)

// Provider names. These are wire values, stored on transactions and used in
// webhook routes.
const (
	ProviderStripe  = "stripe"
	ProviderPayPal  = "paypal"
	ProviderMomoPay = "momopay"
)

var ErrUnknownProvider = errors.New("payment: unknown provider")

// CheckoutRequest is what the API boundary collects before a session opens.
// OriginURL, when present, is the buyer-facing site the provider redirects
// back to; Currency is the buyer's preferred settlement currency.
type CheckoutRequest struct {
	Email     string
	PlanID    string
	Region    string
	Provider  string
	OriginURL string
	Currency  string
}

// CheckoutParams carries everything an adapter needs to open a session.
type CheckoutParams struct {
	Email      string
	PlanID     string
	PlanName   string
	AmountUSD  float64
	AmountVND  int64
	Currency   string
	OrderRef   string
	SuccessURL string
	CancelURL  string
}

// Session is the provider-side checkout the buyer is redirected to.
type Session struct {
	Provider   string  `json:"provider"`
	SessionID  string  `json:"session_id"`
	OrderID    string  `json:"order_id,omitempty"`
	PaymentURL string  `json:"payment_url"`
	QRCodeURL  string  `json:"qr_code_url,omitempty"`
	Deeplink   string  `json:"deeplink,omitempty"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// WebhookNotice is a provider webhook normalized to canonical fields.
// Status uses the models.PaymentStatus* constants.
type WebhookNotice struct {
	EventID   string
	EventType string
	SessionID string
	OrderID   string
	Status    string
}

// Adapter is one payment provider integration.
type Adapter interface {
	Name() string
	CreateCheckout(ctx context.Context, p CheckoutParams) (*Session, error)
	// QueryStatus returns the canonical payment status of a session.
	QueryStatus(ctx context.Context, sessionID string) (string, error)
	// VerifyWebhook checks the provider signature over the raw payload.
	VerifyWebhook(payload []byte, signature string) bool
	ParseWebhook(payload []byte) (*WebhookNotice, error)
}
