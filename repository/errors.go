package repository

import (
	"errors"
	"fmt"
)

// ErrPaymentNotFound is returned when a transaction id is not in the set queried.
var ErrPaymentNotFound = errors.New("payment not found")

// MoveErrorKind classifies a failed move.
type MoveErrorKind int

const (
	// MoveNotFound means the pending row was absent (or not unique) when re-read
	// inside the move transaction.
	MoveNotFound MoveErrorKind = iota + 1
	// MoveStorage means the database rejected a statement or the commit.
	MoveStorage
)

func (k MoveErrorKind) String() string {
	switch k {
	case MoveNotFound:
		return "not_found"
	case MoveStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// MoveError is returned by Move. The pending set is unchanged whenever it is returned.
type MoveError struct {
	Kind          MoveErrorKind
	TransactionID string
	Err           error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s (%s): %v", e.TransactionID, e.Kind, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

func moveNotFound(id string, rows int) *MoveError {
	return &MoveError{
		Kind:          MoveNotFound,
		TransactionID: id,
		Err:           fmt.Errorf("%w: %d pending rows matched", ErrPaymentNotFound, rows),
	}
}

func moveStorage(id string, err error) *MoveError {
	return &MoveError{Kind: MoveStorage, TransactionID: id, Err: err}
}
