package models

import "time"

// Gateway payment states as reported by the authoritative fetch. Anything the
// gateway invents beyond these is treated as "other" by the reconciler.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
)

// Payment is the append-only ledger of gateway payments. The unique key on
// GatewayPaymentID makes redelivered notifications insert-safe: a duplicate
// row is rejected instead of double-counted.
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	GatewayPaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_gateway_payment_id" json:"gateway_payment_id"`
	Amount           float64   `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	Status           string    `gorm:"type:varchar(32);not null;index" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
