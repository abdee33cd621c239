package services_test

import (
	"testing"

	"webhook-service/models"
	"webhook-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimFor(rec models.PaymentRecord) models.WebhookPayload {
	return models.WebhookPayload{
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		Event:         rec.Event,
		Timestamp:     rec.Timestamp,
	}
}

func TestValidatePayment_Match(t *testing.T) {
	assert.NoError(t, services.ValidatePayment(abc123(), claimFor(abc123())))
}

func TestValidatePayment_StringEqualityOnly(t *testing.T) {
	claim := claimFor(abc123())
	claim.Amount = "49.9"

	err := services.ValidatePayment(abc123(), claim)

	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, services.FieldMismatch, ve.Kind)
	assert.Equal(t, "amount", ve.Field)
	assert.Equal(t, "49.90", ve.Stored)
	assert.Equal(t, "49.9", ve.Claimed)
}

func TestValidatePayment_FirstMismatchWins(t *testing.T) {
	claim := claimFor(abc123())
	claim.Event = "payment_failed"
	claim.Timestamp = "2024-01-01T00:00:00Z"
	claim.Currency = "USD"

	err := services.ValidatePayment(abc123(), claim)

	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "currency", ve.Field)

	claim.Currency = "BRL"
	err = services.ValidatePayment(abc123(), claim)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "timestamp", ve.Field)
}

func TestValidatePayment_ShortTimestamp(t *testing.T) {
	for _, ts := range []string{"", "2023-10-0"} {
		rec := abc123()
		rec.Timestamp = ts

		err := services.ValidatePayment(rec, claimFor(rec))

		var ve *services.ValidationError
		require.ErrorAs(t, err, &ve, ts)
		assert.Equal(t, services.InvalidData, ve.Kind)
		assert.Equal(t, "timestamp", ve.Field)
	}

	rec := abc123()
	rec.Timestamp = "2023-10-01"
	assert.NoError(t, services.ValidatePayment(rec, claimFor(rec)))
}
