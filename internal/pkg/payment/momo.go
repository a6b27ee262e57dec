package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/env"
)

const defaultMomoBaseURL = "https://payment.momo.vn/v2/gateway/api"

// MomoClient integrates the MoMo e-wallet gateway. Amounts are charged in
// VND; requests and IPN callbacks are authenticated with an HMAC-SHA256
// signature over the sorted request parameters.
type MomoClient struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	BaseURL     string
	RedirectURL string
	IPNURL      string

	HTTPClient *http.Client
}

func NewMomoClientFromEnv() *MomoClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	c := &MomoClient{
		PartnerCode: strings.TrimSpace(env.GetEnv("MOMO_PARTNER_CODE", "")),
		AccessKey:   strings.TrimSpace(env.GetEnv("MOMO_ACCESS_KEY", "")),
		SecretKey:   strings.TrimSpace(env.GetEnv("MOMO_SECRET_KEY", "")),
		BaseURL:     strings.TrimRight(env.GetEnv("MOMO_BASE_URL", defaultMomoBaseURL), "/"),
		RedirectURL: base + "/payment/success",
		IPNURL:      base + "/api/webhook/momopay",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	if c.Sandbox() {
		log.Info("[Payment] MomoPay running with sandbox credentials, payments will be simulated")
	}
	return c
}

// Sandbox reports whether the configured credentials are the published
// MoMo test placeholders rather than live merchant keys.
func (c *MomoClient) Sandbox() bool {
	switch {
	case c.PartnerCode == "MOMO_SANDBOX_PARTNER", c.PartnerCode == "MOMO_TEST_PARTNER":
		return true
	case c.AccessKey == "MOMO_SANDBOX_ACCESS", c.AccessKey == "MOMO_TEST_ACCESS":
		return true
	case c.SecretKey == "MOMO_SANDBOX_SECRET", c.SecretKey == "MOMO_TEST_SECRET":
		return true
	}
	return false
}

func (c *MomoClient) Name() string { return ProviderMomoPay }

// SignParams builds the canonical signature: parameters sorted by key,
// joined as key=value with "&", HMAC-SHA256 under the secret key, hex.
// The same scheme signs outbound requests and verifies inbound IPNs.
func (c *MomoClient) SignParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(c.SecretKey))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// MomoStatusFor maps MoMo result codes onto canonical payment statuses.
func MomoStatusFor(resultCode int) string {
	switch resultCode {
	case 0:
		return models.PaymentStatusCompleted
	case 9000:
		return models.PaymentStatusProcessing
	case 1003, 8000:
		return models.PaymentStatusCancelled
	case 1000, 1001, 1002, 1004, 1005, 1006, 7000, 7002:
		return models.PaymentStatusFailed
	default:
		// Unknown codes stay open so a later IPN can settle them.
		return models.PaymentStatusProcessing
	}
}

func (c *MomoClient) CreateCheckout(ctx context.Context, p CheckoutParams) (*Session, error) {
	if c.PartnerCode == "" || c.AccessKey == "" || c.SecretKey == "" {
		return nil, fmt.Errorf("momopay is not configured")
	}

	requestID := uuid.New().String()
	orderID := p.OrderRef
	if orderID == "" {
		orderID = requestID
	}
	amount := fmt.Sprintf("%d", p.AmountVND)
	orderInfo := fmt.Sprintf("%s subscription for %s", p.PlanName, p.Email)
	redirectURL := p.SuccessURL
	if redirectURL == "" {
		redirectURL = c.RedirectURL
	}

	params := map[string]string{
		"partnerCode": c.PartnerCode,
		"accessKey":   c.AccessKey,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"redirectUrl": redirectURL,
		"ipnUrl":      c.IPNURL,
		"extraData":   p.PlanID,
		"requestType": "payWithATM",
	}

	body := map[string]string{
		"partnerCode": c.PartnerCode,
		"accessKey":   c.AccessKey,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"redirectUrl": redirectURL,
		"ipnUrl":      c.IPNURL,
		"extraData":   p.PlanID,
		"requestType": "payWithATM",
		"lang":        "vi",
		"signature":   c.SignParams(params),
	}

	var resp struct {
		PayURL     string `json:"payUrl"`
		QRCodeURL  string `json:"qrCodeUrl"`
		Deeplink   string `json:"deeplink"`
		OrderID    string `json:"orderId"`
		RequestID  string `json:"requestId"`
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := c.postJSON(ctx, c.BaseURL+"/create", body, &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != 0 || resp.PayURL == "" {
		return nil, fmt.Errorf("momopay create failed (code %d): %s", resp.ResultCode, resp.Message)
	}

	return &Session{
		Provider:   ProviderMomoPay,
		SessionID:  requestID,
		OrderID:    orderID,
		PaymentURL: resp.PayURL,
		QRCodeURL:  resp.QRCodeURL,
		Deeplink:   resp.Deeplink,
		Amount:     float64(p.AmountVND),
		Currency:   "vnd",
	}, nil
}

func (c *MomoClient) QueryStatus(ctx context.Context, sessionID string) (string, error) {
	params := map[string]string{
		"partnerCode": c.PartnerCode,
		"accessKey":   c.AccessKey,
		"requestId":   sessionID,
		"orderId":     sessionID,
	}
	body := map[string]string{
		"partnerCode": c.PartnerCode,
		"accessKey":   c.AccessKey,
		"requestId":   sessionID,
		"orderId":     sessionID,
		"lang":        "vi",
		"signature":   c.SignParams(params),
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := c.postJSON(ctx, c.BaseURL+"/query", body, &resp); err != nil {
		return "", err
	}
	return MomoStatusFor(resp.ResultCode), nil
}

// VerifyWebhook recomputes the IPN signature from the payload fields. MoMo
// sends the signature inside the JSON body, not in a header; the signature
// argument is ignored when the body carries one.
func (c *MomoClient) VerifyWebhook(payload []byte, signature string) bool {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}

	received, _ := fields["signature"].(string)
	if received == "" {
		received = signature
	}
	if received == "" {
		return false
	}

	params := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "signature" {
			continue
		}
		switch val := v.(type) {
		case string:
			params[k] = val
		case float64:
			params[k] = trimFloat(val)
		case bool:
			params[k] = fmt.Sprintf("%t", val)
		}
	}

	expected := c.SignParams(params)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

func (c *MomoClient) ParseWebhook(payload []byte) (*WebhookNotice, error) {
	var ipn struct {
		RequestID  string `json:"requestId"`
		OrderID    string `json:"orderId"`
		ResultCode int    `json:"resultCode"`
		TransID    int64  `json:"transId"`
	}
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("momopay ipn decode: %w", err)
	}
	if ipn.OrderID == "" {
		return nil, fmt.Errorf("momopay ipn missing orderId")
	}

	eventID := fmt.Sprintf("%s:%d", ipn.OrderID, ipn.TransID)
	return &WebhookNotice{
		EventID:   eventID,
		EventType: "momo.ipn",
		SessionID: ipn.RequestID,
		OrderID:   ipn.OrderID,
		Status:    MomoStatusFor(ipn.ResultCode),
	}, nil
}

func (c *MomoClient) postJSON(ctx context.Context, url string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("momopay status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// trimFloat renders JSON numbers the way MoMo signs them: integers without
// a decimal point.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", f)
}
