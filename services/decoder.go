package services

import (
	"bytes"

	"webhook-service/models"

	json "github.com/goccy/go-json"
)

const (
	fieldTransactionID = "transaction_id"
	fieldAmount        = "amount"
	fieldCurrency      = "currency"
	fieldEvent         = "event"
	fieldTimestamp     = "timestamp"
)

var webhookFields = []string{fieldTransactionID, fieldAmount, fieldCurrency, fieldEvent, fieldTimestamp}

// DecodeFull parses a webhook body. All five fields must be present and be
// JSON strings; otherwise a *DecodeError naming every offending field is
// returned.
func DecodeFull(body []byte) (models.WebhookPayload, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return models.WebhookPayload{}, err
	}

	values := make(map[string]string, len(webhookFields))
	var bad []string
	for _, name := range webhookFields {
		v, ok := stringField(raw, name)
		if !ok {
			bad = append(bad, name)
			continue
		}
		values[name] = v
	}
	if len(bad) > 0 {
		return models.WebhookPayload{}, &DecodeError{Fields: bad}
	}

	return models.WebhookPayload{
		TransactionID: values[fieldTransactionID],
		Amount:        values[fieldAmount],
		Currency:      values[fieldCurrency],
		Event:         values[fieldEvent],
		Timestamp:     values[fieldTimestamp],
	}, nil
}

// DecodeTransactionID recovers only the transaction id from a body that
// failed DecodeFull. The id must be a non-empty string.
func DecodeTransactionID(body []byte) (string, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return "", err
	}
	id, ok := stringField(raw, fieldTransactionID)
	if !ok || id == "" {
		return "", &DecodeError{Fields: []string{fieldTransactionID}}
	}
	return id, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if raw == nil {
		// body was the JSON literal null
		return nil, &DecodeError{Fields: webhookFields}
	}
	return raw, nil
}

func stringField(raw map[string]json.RawMessage, name string) (string, bool) {
	msg, ok := raw[name]
	if !ok {
		return "", false
	}
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
