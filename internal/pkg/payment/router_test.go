package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvidersFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region string
		first  string
		count  int
	}{
		{"VN", ProviderMomoPay, 3},
		{"vn", ProviderMomoPay, 3},
		{"TH", ProviderMomoPay, 3},
		{"US", ProviderStripe, 2},
		{"GB", ProviderStripe, 2},
		{"EU", ProviderStripe, 2},
		{"BR", ProviderStripe, 3},
		{"", ProviderStripe, 3},
	}

	for _, tt := range tests {
		got := ProvidersFor(tt.region)
		assert.Len(t, got, tt.count, "region %q", tt.region)
		assert.Equal(t, tt.first, got[0], "region %q", tt.region)
	}
}

func TestProvidersForReturnsCopy(t *testing.T) {
	t.Parallel()

	a := ProvidersFor("VN")
	a[0] = "mutated"
	assert.Equal(t, ProviderMomoPay, ProvidersFor("VN")[0])
}

func TestPickProvider(t *testing.T) {
	t.Parallel()

	// Explicit request honored, even outside the regional preference list.
	assert.Equal(t, ProviderPayPal, PickProvider("US", "paypal"))
	assert.Equal(t, ProviderStripe, PickProvider("VN", "Stripe"))
	assert.Equal(t, ProviderMomoPay, PickProvider("US", "momopay"))
	assert.Equal(t, ProviderMomoPay, PickProvider("GB", "MomoPay"))

	// Unset or unknown requests fall back to the regional default.
	assert.Equal(t, ProviderMomoPay, PickProvider("VN", ""))
	assert.Equal(t, ProviderStripe, PickProvider("US", ""))
	assert.Equal(t, ProviderStripe, PickProvider("XX", "unknown"))
}
