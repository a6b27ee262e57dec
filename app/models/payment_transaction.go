package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

// PaymentTransaction is created at checkout time and updated by status
// queries and webhooks. Status moves forward only; re-delivery of the same
// terminal status is a no-op.
type PaymentTransaction struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	UUID          string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"id"`
	OwnerEmail    string  `gorm:"type:varchar(200);not null;index" json:"owner_email"`
	Amount        float64 `gorm:"type:double" json:"amount"`
	Currency      string  `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	PlanID        string  `gorm:"type:varchar(50);not null" json:"plan_id"`
	Provider      string  `gorm:"type:varchar(20);not null;index:idx_payment_tx_provider_session,priority:1" json:"provider"`
	SessionID     string  `gorm:"type:varchar(191);not null;index:idx_payment_tx_provider_session,priority:2" json:"session_id"`
	OrderID       string  `gorm:"type:varchar(191);index" json:"order_id"`
	PaymentStatus string  `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	MetadataJSON  string  `gorm:"type:longtext" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether the payment status admits no further transition.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.PaymentStatus {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}
