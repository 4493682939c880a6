package models

import "time"

// PaymentUnlock tracks a checkout session opened to unlock a correction.
type PaymentUnlock struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	SubmissionID      string    `gorm:"size:36;not null;index" json:"submission_id"`
	UserID            *string   `gorm:"size:36" json:"user_id"`
	CheckoutSessionID string    `gorm:"size:128;uniqueIndex" json:"checkout_session_id"`
	Plan              string    `gorm:"size:32;not null" json:"plan"`
	Status            string    `gorm:"size:32;not null" json:"status"`
	AmountTotal       int64     `json:"amount_total"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const (
	// PaymentStatusPending indicates checkout was started but not confirmed.
	PaymentStatusPending = "pending"
	// PaymentStatusCompleted indicates the provider confirmed payment.
	PaymentStatusCompleted = "completed"
)

// IsCompleted reports whether the unlock has been paid for.
func (p PaymentUnlock) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
