package services

import "webhook-service/models"

// minTimestampLength is the shortest timestamp accepted, enough for a
// YYYY-MM-DD date. Timestamps are not parsed.
const minTimestampLength = 10

// ValidatePayment compares a claim against the stored record. Fields are
// checked in a fixed order with exact string equality and the first mismatch
// wins. Equal values then have to pass the timestamp rule.
func ValidatePayment(stored models.PaymentRecord, claimed models.WebhookPayload) error {
	checks := []struct {
		field   string
		stored  string
		claimed string
	}{
		{fieldAmount, stored.Amount, claimed.Amount},
		{fieldCurrency, stored.Currency, claimed.Currency},
		{fieldTimestamp, stored.Timestamp, claimed.Timestamp},
		{fieldEvent, stored.Event, claimed.Event},
	}
	for _, c := range checks {
		if c.stored != c.claimed {
			return &ValidationError{Kind: FieldMismatch, Field: c.field, Stored: c.stored, Claimed: c.claimed}
		}
	}

	if len(claimed.Timestamp) < minTimestampLength {
		return &ValidationError{Kind: InvalidData, Field: fieldTimestamp, Claimed: claimed.Timestamp}
	}
	return nil
}
