package models

import "time"

// TransitionEvent is published after a payment leaves the pending set.
type TransitionEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"` // "payment_confirmed" or "payment_cancelled"
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"` // UTC
}

const (
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentCancelled = "payment_cancelled"
)

// EventTypeFor maps a terminal set to its event type.
func EventTypeFor(dest Destination) string {
	if dest == DestinationConfirmed {
		return EventPaymentConfirmed
	}
	return EventPaymentCancelled
}
