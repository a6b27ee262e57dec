package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/env"
)

const defaultPayPalAPIBaseURL = "https://api-m.paypal.com"

// PayPalClient drives the PayPal Orders v2 API with client-credentials
// OAuth. Access tokens are cached until shortly before expiry.
type PayPalClient struct {
	ClientID   string
	Secret     string
	WebhookID  string
	APIBaseURL string
	ReturnURL  string
	CancelURL  string

	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalClientFromEnv() *PayPalClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	return &PayPalClient{
		ClientID:   strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		Secret:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		WebhookID:  strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL), "/"),
		ReturnURL:  base + "/payment/success",
		CancelURL:  base + "/payment/cancelled",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *PayPalClient) Name() string { return ProviderPayPal }

func (c *PayPalClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		tok := c.accessToken
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, "POST", c.APIBaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("paypal oauth status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("paypal oauth returned no token")
	}

	c.mu.Lock()
	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	c.mu.Unlock()
	return body.AccessToken, nil
}

func (c *PayPalClient) CreateCheckout(ctx context.Context, p CheckoutParams) (*Session, error) {
	if c.ClientID == "" || c.Secret == "" {
		return nil, fmt.Errorf("paypal is not configured")
	}

	returnURL := p.SuccessURL
	if returnURL == "" {
		returnURL = c.ReturnURL
	}
	cancelURL := p.CancelURL
	if cancelURL == "" {
		cancelURL = c.CancelURL
	}

	order := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": p.OrderRef,
				"custom_id":    p.PlanID,
				"description":  p.PlanName,
				"amount": map[string]any{
					// PayPal does not settle VND card payments.
					"currency_code": "USD",
					"value":         fmt.Sprintf("%.2f", p.AmountUSD),
				},
			},
		},
		"application_context": map[string]any{
			"return_url": returnURL,
			"cancel_url": cancelURL,
		},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := c.doJSON(ctx, "POST", "/v2/checkout/orders", order, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("paypal returned no order id")
	}

	var approveURL string
	for _, l := range resp.Links {
		if l.Rel == "approve" {
			approveURL = l.Href
			break
		}
	}
	if approveURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approve link", resp.ID)
	}

	return &Session{
		Provider:   ProviderPayPal,
		SessionID:  resp.ID,
		OrderID:    resp.ID,
		PaymentURL: approveURL,
		Amount:     p.AmountUSD,
		Currency:   "usd",
	}, nil
}

func (c *PayPalClient) QueryStatus(ctx context.Context, sessionID string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, "GET", "/v2/checkout/orders/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return "", err
	}
	return paypalStatusFor(resp.Status), nil
}

func paypalStatusFor(orderStatus string) string {
	switch strings.ToUpper(orderStatus) {
	case "COMPLETED":
		return models.PaymentStatusCompleted
	case "APPROVED":
		return models.PaymentStatusProcessing
	case "CREATED", "SAVED", "PAYER_ACTION_REQUIRED":
		return models.PaymentStatusPending
	case "VOIDED":
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusPending
	}
}

// VerifyWebhook asks PayPal to confirm the transmission. The signature
// argument carries the transmission headers as a JSON object because PayPal
// splits its proof across several headers.
func (c *PayPalClient) VerifyWebhook(payload []byte, signature string) bool {
	if c.WebhookID == "" || signature == "" {
		return false
	}

	var headers struct {
		TransmissionID   string `json:"transmission_id"`
		TransmissionTime string `json:"transmission_time"`
		TransmissionSig  string `json:"transmission_sig"`
		CertURL          string `json:"cert_url"`
		AuthAlgo         string `json:"auth_algo"`
	}
	if err := json.Unmarshal([]byte(signature), &headers); err != nil {
		return false
	}

	body := map[string]any{
		"transmission_id":   headers.TransmissionID,
		"transmission_time": headers.TransmissionTime,
		"transmission_sig":  headers.TransmissionSig,
		"cert_url":          headers.CertURL,
		"auth_algo":         headers.AuthAlgo,
		"webhook_id":        c.WebhookID,
		"webhook_event":     json.RawMessage(payload),
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.doJSON(ctx, "POST", "/v1/notifications/verify-webhook-signature", body, &resp); err != nil {
		return false
	}
	return resp.VerificationStatus == "SUCCESS"
}

func (c *PayPalClient) ParseWebhook(payload []byte) (*WebhookNotice, error) {
	var event struct {
		ID        string `json:"id"`
		EventType string `json:"event_type"`
		Resource  struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			Supplementary struct {
				RelatedIDs struct {
					OrderID string `json:"order_id"`
				} `json:"related_ids"`
			} `json:"supplementary_data"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("paypal webhook decode: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("paypal webhook missing event id")
	}

	orderID := event.Resource.Supplementary.RelatedIDs.OrderID
	if orderID == "" {
		orderID = event.Resource.ID
	}

	status := paypalStatusFor(event.Resource.Status)
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		status = models.PaymentStatusCompleted
	case "PAYMENT.CAPTURE.DENIED":
		status = models.PaymentStatusFailed
	}

	return &WebhookNotice{
		EventID:   event.ID,
		EventType: event.EventType,
		SessionID: orderID,
		OrderID:   orderID,
		Status:    status,
	}, nil
}

func (c *PayPalClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("paypal status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
