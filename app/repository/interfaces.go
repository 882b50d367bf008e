package repository

import (
	"github.com/NicolasMarrai/healthmed/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
	CountBySubscriptionStatus(status string) (int64, error)
}

// PaymentRepository defines read access to the payment ledger. Writes go
// through the payment service only.
type PaymentRepository interface {
	GetByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error)
	ListByUserID(userID uint) ([]models.Payment, error)
	Count() (int64, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	User    UserRepository
	Payment PaymentRepository
}
