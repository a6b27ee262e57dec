package repository

import (
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription record
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetActiveByOwner returns the newest active, unexpired subscription for an owner
func (r *subscriptionRepository) GetActiveByOwner(email string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("owner_email = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
		email, models.SubscriptionStatusActive, time.Now()).
		Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByOwner returns all subscriptions of an owner, newest first
func (r *subscriptionRepository) GetByOwner(email string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("owner_email = ?", email).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// Update updates an existing subscription
func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// DeactivateAllForOwner marks every active subscription of an owner inactive.
// Called before a new activation so at most one subscription stays active.
func (r *subscriptionRepository) DeactivateAllForOwner(email string) error {
	return r.db.Model(&models.Subscription{}).
		Where("owner_email = ? AND status = ?", email, models.SubscriptionStatusActive).
		Update("status", models.SubscriptionStatusInactive).Error
}
