package plans

import (
	"strings"
	"time"
)

// Tier is the quality/quota class applied to a single processing run.
type Tier string

const (
	TierStandard Tier = "standard"
	TierFreeHigh Tier = "free_high"
	TierPremium  Tier = "premium"
)

// NormalizeTier maps arbitrary input onto a known tier, defaulting to standard.
func NormalizeTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierPremium:
		return TierPremium
	case TierFreeHigh:
		return TierFreeHigh
	default:
		return TierStandard
	}
}

// Upload and processing limits.
const (
	MaxFileSize             = 500 * 1024 * 1024  // 500MB
	MaxVideoDurationFree    = 300 * time.Second  // 5 minutes
	MaxVideoDurationPremium = 1800 * time.Second // 30 minutes

	// FreeHighQualityAllowance is how many uploads in the trailing 30 days a
	// free user may process at free_high quality before dropping to standard.
	FreeHighQualityAllowance = 2
	UsageWindow              = 30 * 24 * time.Hour

	MinSegmentDuration     = 10 * time.Second
	DefaultSegmentDuration = 25 * time.Second
)

// MaxVideoDuration returns the upload duration ceiling for a tier.
func MaxVideoDuration(t Tier) time.Duration {
	if t == TierPremium {
		return MaxVideoDurationPremium
	}
	return MaxVideoDurationFree
}

// MaxSegmentDuration returns the per-segment duration ceiling for a tier.
// Longer hints are truncated from the end, never split.
func MaxSegmentDuration(t Tier) time.Duration {
	switch t {
	case TierPremium:
		return 60 * time.Second
	case TierFreeHigh:
		return 45 * time.Second
	default:
		return 30 * time.Second
	}
}

// MaxSegmentsForDuration is the business cap on how many segments one video
// may yield. The thresholds are contractual, not a performance limit.
func MaxSegmentsForDuration(d time.Duration) int {
	switch {
	case d > 300*time.Second:
		return 3
	case d > 180*time.Second:
		return 3
	case d > 60*time.Second:
		return 4
	default:
		return 3
	}
}

// QualityProfile describes the tier-dependent rendering setup passed to the
// encoder and the caption composer.
type QualityProfile struct {
	Resolution   string // scale target, portrait WxH
	CRF          int
	Preset       string
	FPS          int
	VideoEffects bool
	CaptionStyle string
	MaxCues      int
}

// ProfileFor returns the rendering profile for a tier.
func ProfileFor(t Tier) QualityProfile {
	switch t {
	case TierPremium:
		return QualityProfile{
			Resolution:   "1080:1920",
			CRF:          16,
			Preset:       "slower",
			FPS:          30,
			VideoEffects: true,
			CaptionStyle: "advanced",
			MaxCues:      4,
		}
	case TierFreeHigh:
		return QualityProfile{
			Resolution:   "1080:1920",
			CRF:          18,
			Preset:       "medium",
			FPS:          30,
			VideoEffects: true,
			CaptionStyle: "enhanced",
			MaxCues:      4,
		}
	default:
		return QualityProfile{
			Resolution:   "720:1280",
			CRF:          22,
			Preset:       "fast",
			FPS:          24,
			VideoEffects: false,
			CaptionStyle: "basic",
			MaxCues:      1,
		}
	}
}

// Plan is one purchasable subscription plan.
type Plan struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	PriceUSD     float64       `json:"price_usd"`
	PriceVND     int64         `json:"price_vnd"`
	Description  string        `json:"description"`
	MaxDuration  time.Duration `json:"-"`
	Period       time.Duration `json:"-"`
	DurationDays int           `json:"duration_days"`
}

var catalog = map[string]Plan{
	"premium_monthly": {
		ID:           "premium_monthly",
		Name:         "Premium Monthly",
		PriceUSD:     9.99,
		PriceVND:     240000,
		Description:  "Upload videos up to 30 minutes, unlimited processing",
		MaxDuration:  MaxVideoDurationPremium,
		Period:       30 * 24 * time.Hour,
		DurationDays: 30,
	},
	"premium_yearly": {
		ID:           "premium_yearly",
		Name:         "Premium Yearly",
		PriceUSD:     99.99,
		PriceVND:     2400000,
		Description:  "Upload videos up to 30 minutes, unlimited processing + 2 months free",
		MaxDuration:  MaxVideoDurationPremium,
		Period:       365 * 24 * time.Hour,
		DurationDays: 365,
	},
}

// FindPlan resolves a plan id from the catalog.
func FindPlan(id string) (Plan, bool) {
	p, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// All returns the full plan catalog.
func All() []Plan {
	return []Plan{catalog["premium_monthly"], catalog["premium_yearly"]}
}
