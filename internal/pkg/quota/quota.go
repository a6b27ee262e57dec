// Package quota resolves the effective processing tier for an owner and
// reports remaining free high-quality allowance.
package quota

import (
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// SubscriptionStore is the subset of subscription storage the oracle needs.
type SubscriptionStore interface {
	GetActiveByOwner(email string) (*models.Subscription, error)
}

// UsageStore counts uploads inside the rolling usage window.
type UsageStore interface {
	CountByOwnerSince(email string, since time.Time) (int64, error)
}

// UsageStatus summarizes an owner's standing within the current window.
type UsageStatus struct {
	Email         string     `json:"email"`
	Tier          plans.Tier `json:"tier"`
	IsPremium     bool       `json:"is_premium"`
	WindowStart   time.Time  `json:"window_start"`
	UsedHQ        int        `json:"used_high_quality"`
	RemainingHQ   int        `json:"remaining_high_quality"`
	AllowanceHQ   int        `json:"high_quality_allowance"`
	PlanID        string     `json:"plan_id,omitempty"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
}

// Oracle decides tiers. Lookup failures degrade to the standard tier so a
// database hiccup never hands out premium processing.
type Oracle struct {
	subs  SubscriptionStore
	usage UsageStore
	now   func() time.Time
}

func NewOracle(subs SubscriptionStore, usage UsageStore) *Oracle {
	return &Oracle{subs: subs, usage: usage, now: time.Now}
}

// TierFor resolves the tier an owner's next upload is processed at.
// Premium subscribers always get premium. Everyone else gets the free
// high-quality tier while allowance remains in the window, then standard.
func (o *Oracle) TierFor(email string) plans.Tier {
	if email == "" {
		return plans.TierStandard
	}

	sub, err := o.subs.GetActiveByOwner(email)
	if err == nil && sub != nil && sub.IsCurrent(o.now()) {
		return plans.TierPremium
	}

	since := o.now().Add(-plans.UsageWindow)
	used, err := o.usage.CountByOwnerSince(email, since)
	if err != nil {
		return plans.TierStandard
	}
	if used < int64(plans.FreeHighQualityAllowance) {
		return plans.TierFreeHigh
	}
	return plans.TierStandard
}

// Status reports the full usage picture for an owner.
func (o *Oracle) Status(email string) UsageStatus {
	status := UsageStatus{
		Email:       email,
		Tier:        plans.TierStandard,
		WindowStart: o.now().Add(-plans.UsageWindow),
		AllowanceHQ: plans.FreeHighQualityAllowance,
	}

	sub, err := o.subs.GetActiveByOwner(email)
	if err == nil && sub != nil && sub.IsCurrent(o.now()) {
		status.Tier = plans.TierPremium
		status.IsPremium = true
		status.PlanID = sub.PlanID
		status.PlanExpiresAt = sub.ExpiresAt
		status.RemainingHQ = status.AllowanceHQ
		return status
	}

	used, err := o.usage.CountByOwnerSince(email, status.WindowStart)
	if err != nil {
		return status
	}
	status.UsedHQ = int(used)
	if remaining := status.AllowanceHQ - status.UsedHQ; remaining > 0 {
		status.Tier = plans.TierFreeHigh
		status.RemainingHQ = remaining
	}
	return status
}
