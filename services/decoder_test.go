package services_test

import (
	"testing"

	"webhook-service/models"
	"webhook-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFull_AllFields(t *testing.T) {
	body := []byte(`{"transaction_id":"abc123","amount":"49.90","currency":"BRL","event":"payment_success","timestamp":"2023-10-01T12:00:00Z","extra":42}`)

	p, err := services.DecodeFull(body)

	require.NoError(t, err)
	assert.Equal(t, models.WebhookPayload{
		TransactionID: "abc123",
		Amount:        "49.90",
		Currency:      "BRL",
		Event:         "payment_success",
		Timestamp:     "2023-10-01T12:00:00Z",
	}, p)
}

func TestDecodeFull_KeepsExactStrings(t *testing.T) {
	body := []byte(`{"transaction_id":"t","amount":"049.900","currency":"brl","event":"e","timestamp":" 2023-10-01 "}`)

	p, err := services.DecodeFull(body)

	require.NoError(t, err)
	assert.Equal(t, "049.900", p.Amount)
	assert.Equal(t, " 2023-10-01 ", p.Timestamp)
}

func TestDecodeFull_ReportsEveryBadField(t *testing.T) {
	body := []byte(`{"transaction_id":"abc123","amount":49.90,"event":null,"timestamp":"2023-10-01T12:00:00Z"}`)

	_, err := services.DecodeFull(body)

	var de *services.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"amount", "currency", "event"}, de.Fields)
}

func TestDecodeFull_NotAnObject(t *testing.T) {
	for _, body := range []string{``, `nope`, `[1,2]`, `"abc"`} {
		_, err := services.DecodeFull([]byte(body))

		var de *services.DecodeError
		require.ErrorAs(t, err, &de, body)
		assert.Empty(t, de.Fields, body)
	}
}

func TestDecodeFull_Null(t *testing.T) {
	_, err := services.DecodeFull([]byte(`null`))

	var de *services.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Len(t, de.Fields, 5)
}

func TestDecodeTransactionID(t *testing.T) {
	id, err := services.DecodeTransactionID([]byte(`{"transaction_id":"abc123abc","currency":"BRL"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc123abc", id)

	for _, body := range []string{`{}`, `{"transaction_id":""}`, `{"transaction_id":7}`, `{"transaction_id":null}`, `garbage`} {
		_, err := services.DecodeTransactionID([]byte(body))
		assert.Error(t, err, body)
	}
}
