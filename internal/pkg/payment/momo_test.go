package payment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeTienDat/ViralCut/app/models"
)

func testMomoClient() *MomoClient {
	return &MomoClient{
		PartnerCode: "PARTNER",
		AccessKey:   "access",
		SecretKey:   "secret",
	}
}

func TestSignParamsIsOrderIndependent(t *testing.T) {
	t.Parallel()

	c := testMomoClient()
	a := c.SignParams(map[string]string{"b": "2", "a": "1", "c": "3"})
	b := c.SignParams(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestVerifyWebhookRoundTrip(t *testing.T) {
	t.Parallel()

	c := testMomoClient()
	params := map[string]string{
		"partnerCode": "PARTNER",
		"orderId":     "order-1",
		"requestId":   "req-1",
		"amount":      "240000",
		"resultCode":  "0",
	}

	payload := map[string]any{
		"partnerCode": "PARTNER",
		"orderId":     "order-1",
		"requestId":   "req-1",
		"amount":      240000,
		"resultCode":  0,
		"signature":   c.SignParams(params),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.True(t, c.VerifyWebhook(raw, ""))

	// Any tampering breaks the signature.
	payload["amount"] = 1
	raw, err = json.Marshal(payload)
	require.NoError(t, err)
	assert.False(t, c.VerifyWebhook(raw, ""))
}

func TestVerifyWebhookRejectsUnsigned(t *testing.T) {
	t.Parallel()

	c := testMomoClient()
	assert.False(t, c.VerifyWebhook([]byte(`{"orderId":"x"}`), ""))
	assert.False(t, c.VerifyWebhook([]byte(`not json`), "abc"))
}

func TestMomoStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want string
	}{
		{0, models.PaymentStatusCompleted},
		{9000, models.PaymentStatusProcessing},
		{1003, models.PaymentStatusCancelled},
		{8000, models.PaymentStatusCancelled},
		{1000, models.PaymentStatusFailed},
		{1006, models.PaymentStatusFailed},
		{7000, models.PaymentStatusFailed},
		{7002, models.PaymentStatusFailed},
		{4242, models.PaymentStatusProcessing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MomoStatusFor(tt.code), "code %d", tt.code)
	}
}

func TestParseWebhook(t *testing.T) {
	t.Parallel()

	c := testMomoClient()
	notice, err := c.ParseWebhook([]byte(`{"requestId":"req-1","orderId":"order-1","resultCode":0,"transId":991}`))
	require.NoError(t, err)
	assert.Equal(t, "order-1:991", notice.EventID)
	assert.Equal(t, "order-1", notice.OrderID)
	assert.Equal(t, models.PaymentStatusCompleted, notice.Status)

	_, err = c.ParseWebhook([]byte(`{"requestId":"req-1"}`))
	assert.Error(t, err)
}

func TestSandboxDetection(t *testing.T) {
	t.Parallel()

	c := testMomoClient()
	assert.False(t, c.Sandbox())

	c.PartnerCode = "MOMO_SANDBOX_PARTNER"
	assert.True(t, c.Sandbox())

	c = testMomoClient()
	c.SecretKey = "MOMO_TEST_SECRET"
	assert.True(t, c.Sandbox())
}
