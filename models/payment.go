package models

import "time"

// PaymentRecord is the stored view of a payment. Every field is kept as the
// exact string received; amount and timestamp are never parsed for comparison.
type PaymentRecord struct {
	TransactionID string `gorm:"type:varchar(128);primaryKey" json:"transaction_id" yaml:"transaction_id" validate:"required"`
	Amount        string `gorm:"type:varchar(64);not null" json:"amount" yaml:"amount" validate:"required"`
	Currency      string `gorm:"type:varchar(16);not null" json:"currency" yaml:"currency" validate:"required"`
	Event         string `gorm:"type:varchar(128);not null" json:"event" yaml:"event" validate:"required"`
	Timestamp     string `gorm:"type:varchar(64);not null" json:"timestamp" yaml:"timestamp" validate:"required"`
}

// PendingPayment is a payment awaiting its webhook.
type PendingPayment struct {
	PaymentRecord `gorm:"embedded"`
}

func (PendingPayment) TableName() string { return "pending" }

// SettledPayment is a payment that reached a terminal set. The table it lives
// in is selected by Destination.
type SettledPayment struct {
	PaymentRecord `gorm:"embedded"`
	SettledAt     time.Time `gorm:"not null" json:"settled_at"`
}

// Destination names a terminal set.
type Destination string

const (
	DestinationConfirmed Destination = "confirmed"
	DestinationCancelled Destination = "cancelled"
)

// TableName returns the table backing the terminal set.
func (d Destination) TableName() string { return string(d) }

// Valid reports whether d is a known terminal set.
func (d Destination) Valid() bool {
	return d == DestinationConfirmed || d == DestinationCancelled
}

// Payment status values reported by the status endpoint.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// WebhookPayload is what a webhook claims about a payment. It is untrusted
// until checked against the matching PendingPayment.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Event         string `json:"event"`
	Timestamp     string `json:"timestamp"`
}
