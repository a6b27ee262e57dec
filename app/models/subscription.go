package models

import "time"

const (
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusInactive = "inactive"
)

// Subscription records a purchased plan for an owner. At most one row per
// owner may be active at any time; activation deactivates prior active rows
// (last writer wins).
type Subscription struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OwnerEmail string     `gorm:"type:varchar(200);not null;index:idx_subscriptions_owner_status,priority:1" json:"owner_email"`
	PlanID     string     `gorm:"type:varchar(50);not null" json:"plan_id"`
	Amount     float64    `gorm:"type:double" json:"amount"`
	Currency   string     `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_subscriptions_owner_status,priority:2" json:"status"`
	ExpiresAt  *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCurrent reports whether the subscription entitles the owner right now.
func (s *Subscription) IsCurrent(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}
