package repository

import (
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
)

// VideoRepository defines the interface for video upload database operations
type VideoRepository interface {
	Create(video *models.VideoUpload) error
	GetByUUID(uuid string) (*models.VideoUpload, error)
	GetByOwner(email string, offset, limit int) ([]models.VideoUpload, error)
	Update(video *models.VideoUpload) error
	Delete(uuid string) error
	Count() (int64, error)
	CountByOwnerSince(email string, since time.Time) (int64, error)
}

// AnalysisRepository defines the interface for viral analysis database operations
type AnalysisRepository interface {
	Create(analysis *models.ViralAnalysis) error
	GetByVideoUUID(videoUUID string) (*models.ViralAnalysis, error)
	DeleteByVideoUUID(videoUUID string) error
}

// SegmentRepository defines the interface for video segment database operations
type SegmentRepository interface {
	ReplaceForVideo(videoUUID string, segments []models.VideoSegment) error
	GetByVideoUUID(videoUUID string) ([]models.VideoSegment, error)
	GetByVideoUUIDAndIndex(videoUUID string, index int) (*models.VideoSegment, error)
	Update(segment *models.VideoSegment) error
	DeleteByVideoUUID(videoUUID string) error
}

// SubscriptionRepository defines the interface for subscription database operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetActiveByOwner(email string) (*models.Subscription, error)
	GetByOwner(email string) ([]models.Subscription, error)
	Update(sub *models.Subscription) error
	DeactivateAllForOwner(email string) error
}

// TransactionRepository defines the interface for payment transaction operations
type TransactionRepository interface {
	Create(txn *models.PaymentTransaction) error
	GetByProviderSession(provider, sessionID string) (*models.PaymentTransaction, error)
	GetByOrderID(orderID string) (*models.PaymentTransaction, error)
	Update(txn *models.PaymentTransaction) error
}

// WebhookEventRepository defines the interface for webhook event bookkeeping
type WebhookEventRepository interface {
	// InsertIgnoreDuplicate records the event and reports whether this is
	// the first time it has been seen.
	InsertIgnoreDuplicate(event *models.WebhookEvent) (bool, error)
	MarkProcessed(provider, providerEventID string, processingErr string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Video        VideoRepository
	Analysis     AnalysisRepository
	Segment      SegmentRepository
	Subscription SubscriptionRepository
	Transaction  TransactionRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Video:        NewVideoRepository(db),
		Analysis:     NewAnalysisRepository(db),
		Segment:      NewSegmentRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Transaction:  NewTransactionRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
