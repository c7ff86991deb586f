package workorder

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no order matches the given key.
	ErrNotFound = errors.New("order not found")

	// ErrSessionNotFound is returned when a workflow session token does not
	// resolve to a live session.
	ErrSessionNotFound = errors.New("workflow session not found")

	// ErrSaveInProgress rejects a duplicate submission while a save is
	// already in flight for the session.
	ErrSaveInProgress = errors.New("a save is already in progress")

	// ErrAlreadySubmitted rejects re-submission after a successful save.
	ErrAlreadySubmitted = errors.New("order has already been submitted")

	// ErrNotSubmitted gates printing behind a successful save.
	ErrNotSubmitted = errors.New("order has not been saved yet")
)

// FieldError is a single field-scoped validation failure. The slice order is
// significant: the first entry determines where input focus lands.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a step transition or save. It never reaches the
// database.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
}

// Focus returns the field that should receive input focus, the first failing
// field in priority order.
func (e *ValidationError) Focus() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Field
}

// ConflictError reports a (branch, order id) uniqueness violation that
// survived the automatic single re-allocation retry.
type ConflictError struct {
	Branch  string
	OrderID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order id %d already taken for branch %s", e.OrderID, e.Branch)
}

// TransientError wraps a storage or network failure, naming the attempted
// operation. The draft is preserved so the operator may retry manually.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
