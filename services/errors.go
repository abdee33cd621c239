package services

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceError is a typed error with an HTTP status code. Message is the only
// part rendered to the caller.
type ServiceError struct {
	StatusCode int
	Message    string
	// Status is the terminal state the payment reached while the request
	// failed, e.g. "cancelled". Empty when nothing moved.
	Status string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Response labels. Kept short; diagnostics go to the log.
const (
	MsgUnauthorized    = "unauthorized"
	MsgPaymentMismatch = "payment data mismatch"
	MsgMissingFields   = "missing fields"
	MsgInvalidPayload  = "invalid payload"
	MsgProcessingError = "error processing payment"
	MsgNotFound        = "payment not found"
	MsgInternal        = "internal error"
)

// ErrUnauthorized is returned when the webhook token is absent or wrong.
var ErrUnauthorized = errors.New("invalid or missing webhook token")

// DecodeError reports a payload that could not be decoded. Fields lists the
// missing or non-string fields, in payload field order.
type DecodeError struct {
	Fields []string
	Err    error
}

func (e *DecodeError) Error() string {
	if len(e.Fields) > 0 {
		return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
	}
	if e.Err != nil {
		return "malformed payload: " + e.Err.Error()
	}
	return "malformed payload"
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationErrorKind classifies a validation failure.
type ValidationErrorKind int

const (
	FieldMismatch ValidationErrorKind = iota + 1
	InvalidData
)

// ValidationError is returned when a claim does not match the stored record
// or breaks a business rule. Stored and Claimed are for logging only.
type ValidationError struct {
	Kind    ValidationErrorKind
	Field   string
	Stored  string
	Claimed string
}

func (e *ValidationError) Error() string {
	if e.Kind == InvalidData {
		return "invalid data: " + e.Field
	}
	return "field mismatch: " + e.Field
}

// NetworkError is returned when the settlement call fails.
type NetworkError struct {
	Op            string // "confirm" or "cancel"
	TransactionID string
	StatusCode    int // zero when no response was received
	Err           error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("settlement %s %s: status %d", e.Op, e.TransactionID, e.StatusCode)
	}
	return fmt.Sprintf("settlement %s %s: %v", e.Op, e.TransactionID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
