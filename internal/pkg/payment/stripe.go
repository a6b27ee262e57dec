package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// StripeClient drives Stripe Checkout through the form-encoded REST API.
type StripeClient struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string
	SuccessURL    string
	CancelURL     string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	return &StripeClient{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimRight(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL), "/"),
		SuccessURL:    base + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/payment/cancelled",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *StripeClient) Name() string { return ProviderStripe }

func (c *StripeClient) CreateCheckout(ctx context.Context, p CheckoutParams) (*Session, error) {
	if c.SecretKey == "" {
		return nil, fmt.Errorf("stripe is not configured")
	}

	successURL := p.SuccessURL
	if successURL == "" {
		successURL = c.SuccessURL
	} else if !strings.Contains(successURL, "{CHECKOUT_SESSION_ID}") {
		successURL += "?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := p.CancelURL
	if cancelURL == "" {
		cancelURL = c.CancelURL
	}

	// VND is a zero-decimal currency on Stripe; USD amounts are in cents.
	currency := "usd"
	unitAmount := int64(math.Round(p.AmountUSD * 100))
	amount := p.AmountUSD
	if p.Currency == "vnd" {
		currency = "vnd"
		unitAmount = p.AmountVND
		amount = float64(p.AmountVND)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", p.Email)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", p.OrderRef)
	form.Set("metadata[plan_id]", p.PlanID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(unitAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.PlanName)

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, c.APIBaseURL+"/checkout/sessions", form, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.URL == "" {
		return nil, fmt.Errorf("stripe returned an incomplete session")
	}

	return &Session{
		Provider:   ProviderStripe,
		SessionID:  resp.ID,
		OrderID:    p.OrderRef,
		PaymentURL: resp.URL,
		Amount:     amount,
		Currency:   currency,
	}, nil
}

func (c *StripeClient) QueryStatus(ctx context.Context, sessionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIBaseURL+"/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("stripe status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var session struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	return stripeStatusFor(session.Status, session.PaymentStatus), nil
}

func stripeStatusFor(sessionStatus, paymentStatus string) string {
	if paymentStatus == "paid" {
		return models.PaymentStatusCompleted
	}
	switch sessionStatus {
	case "expired":
		return models.PaymentStatusCancelled
	case "complete":
		// Complete but not paid: asynchronous payment method still settling.
		return models.PaymentStatusProcessing
	default:
		return models.PaymentStatusPending
	}
}

// VerifyWebhook checks the Stripe-Signature header: "t=<ts>,v1=<hmac>",
// where the MAC is HMAC-SHA256 of "<ts>.<payload>" under the endpoint
// secret. Timestamps older than five minutes are rejected.
func (c *StripeClient) VerifyWebhook(payload []byte, signature string) bool {
	if c.WebhookSecret == "" || signature == "" {
		return false
	}

	var ts string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if ts == "" || len(candidates) == 0 {
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	if d := time.Since(time.Unix(unix, 0)); d > 5*time.Minute || d < -5*time.Minute {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, cand := range candidates {
		if hmac.Equal([]byte(expected), []byte(strings.ToLower(cand))) {
			return true
		}
	}
	return false
}

func (c *StripeClient) ParseWebhook(payload []byte) (*WebhookNotice, error) {
	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID                string `json:"id"`
				ClientReferenceID string `json:"client_reference_id"`
				Status            string `json:"status"`
				PaymentStatus     string `json:"payment_status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe webhook decode: %w", err)
	}
	if event.ID == "" || event.Data.Object.ID == "" {
		return nil, fmt.Errorf("stripe webhook missing identifiers")
	}

	status := stripeStatusFor(event.Data.Object.Status, event.Data.Object.PaymentStatus)
	switch event.Type {
	case "checkout.session.expired":
		status = models.PaymentStatusCancelled
	case "checkout.session.async_payment_failed":
		status = models.PaymentStatusFailed
	}

	return &WebhookNotice{
		EventID:   event.ID,
		EventType: event.Type,
		SessionID: event.Data.Object.ID,
		OrderID:   event.Data.Object.ClientReferenceID,
		Status:    status,
	}, nil
}

func (c *StripeClient) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("stripe status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
