package repository

import (
	"gorm.io/gorm"

	"github.com/NicolasMarrai/healthmed/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByGatewayPaymentID retrieves a ledger entry by the gateway's payment id
func (r *paymentRepository) GetByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("gateway_payment_id = ?", gatewayPaymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUserID lists all ledger entries for one user, newest first
func (r *paymentRepository) ListByUserID(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// Count returns the total number of ledger entries
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}
