package repository

import (
	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new payment transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new payment transaction record
func (r *transactionRepository) Create(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

// GetByProviderSession retrieves a transaction by provider and session ID
func (r *transactionRepository) GetByProviderSession(provider, sessionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.Where("provider = ? AND session_id = ?", provider, sessionID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetByOrderID retrieves a transaction by the provider-facing order ID
func (r *transactionRepository) GetByOrderID(orderID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.Where("order_id = ?", orderID).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Update updates an existing payment transaction
func (r *transactionRepository) Update(txn *models.PaymentTransaction) error {
	return r.db.Save(txn).Error
}
