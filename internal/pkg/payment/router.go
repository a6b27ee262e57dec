package payment

import "strings"

// Regional provider preference. Southeast Asian markets lead with MomoPay,
// western card markets with Stripe; everyone else gets the full list in
// default order.
var regionPreferences = map[string][]string{
	"VN": {ProviderMomoPay, ProviderStripe, ProviderPayPal},
	"TH": {ProviderMomoPay, ProviderStripe, ProviderPayPal},
	"LA": {ProviderMomoPay, ProviderStripe, ProviderPayPal},
	"KH": {ProviderMomoPay, ProviderStripe, ProviderPayPal},
	"MM": {ProviderMomoPay, ProviderStripe, ProviderPayPal},

	"US": {ProviderStripe, ProviderPayPal},
	"CA": {ProviderStripe, ProviderPayPal},
	"GB": {ProviderStripe, ProviderPayPal},
	"EU": {ProviderStripe, ProviderPayPal},
}

var defaultPreference = []string{ProviderStripe, ProviderPayPal, ProviderMomoPay}

// ProvidersFor returns the providers offered in a region, most preferred
// first. Region codes are ISO 3166-1 alpha-2, case-insensitive; "EU" is
// accepted as a synthetic region for European card markets.
func ProvidersFor(region string) []string {
	if prefs, ok := regionPreferences[strings.ToUpper(strings.TrimSpace(region))]; ok {
		out := make([]string, len(prefs))
		copy(out, prefs)
		return out
	}
	out := make([]string, len(defaultPreference))
	copy(out, defaultPreference)
	return out
}

// PickProvider resolves the provider for a checkout. A recognized explicit
// request always wins; the regional preference table only applies when the
// caller left the provider unset or named an unknown one.
func PickProvider(region, requested string) string {
	switch req := strings.ToLower(strings.TrimSpace(requested)); req {
	case ProviderStripe, ProviderPayPal, ProviderMomoPay:
		return req
	}
	return ProvidersFor(region)[0]
}
