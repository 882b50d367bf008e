package payments

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NicolasMarrai/healthmed/app/models"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	ActivateSubscription(userID uint) error
	RecordPayment(payment *models.Payment) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ActivateSubscription flips a user to active. The conditional update makes
// redelivered notifications a safe no-op: an already-active user matches zero
// rows and nothing changes.
func (r *gormRepository) ActivateSubscription(userID uint) error {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return err
	}
	now := time.Now()
	return r.db.Model(&models.User{}).
		Where("id = ? AND subscription_status <> ?", userID, models.SUBSCRIPTION_ACTIVE).
		Updates(map[string]interface{}{
			"subscription_status":       models.SUBSCRIPTION_ACTIVE,
			"subscription_activated_at": &now,
		}).Error
}

// RecordPayment appends a ledger row. The unique key on gateway_payment_id
// turns concurrent duplicate inserts into no-ops instead of double entries.
func (r *gormRepository) RecordPayment(payment *models.Payment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "gateway_payment_id"},
		},
		DoNothing: true,
	}).Create(payment).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
