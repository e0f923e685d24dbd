package models

import "time"

const (
	PaymentStatusCompleted = "completed"

	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Payment stores one row per completed checkout event delivered by the
// payment provider. SessionID carries a uniqueness constraint; a redelivered
// webhook for the same session must hit the constraint instead of producing
// a second row. Rows are never mutated after insert except to backfill
// UserID once an account was matched by email.
type Payment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_session_id" json:"session_id"`
	CustomerEmail  string    `gorm:"type:varchar(200);index" json:"customer_email"`
	Plan           string    `gorm:"type:varchar(50);not null" json:"plan"`
	BillingCycle   string    `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	Amount         float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreditsGranted int       `gorm:"not null;default:0" json:"credits_granted"`
	Status         string    `gorm:"type:varchar(32);not null;default:'completed';index" json:"status"`
	UserID         *uint     `gorm:"index" json:"user_id,omitempty"`
	RawEvent       string    `gorm:"type:longtext" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCompleted reports whether the webhook has fully processed this payment.
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
