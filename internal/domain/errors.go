package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when the requested entity does not
// exist. Callers branch on it with errors.Is.
var ErrNotFound = errors.New("entity not found")

// ErrOrphanUpdate is returned when an operation receives an update whose
// owning account no longer exists. Orphans are an explicit error path, never
// a silent no-op.
var ErrOrphanUpdate = errors.New("update references a missing account")

// ValidationKind identifies which validation rule an input violated.
type ValidationKind string

const (
	ValidationEmpty            ValidationKind = "EMPTY"
	ValidationTooLong          ValidationKind = "TOO_LONG"
	ValidationTooShort         ValidationKind = "TOO_SHORT"
	ValidationBadFormat        ValidationKind = "BAD_FORMAT"
	ValidationParseError       ValidationKind = "PARSE_ERROR"
	ValidationNegative         ValidationKind = "NEGATIVE"
	ValidationTooLarge         ValidationKind = "TOO_LARGE"
	ValidationTooManyDecimals  ValidationKind = "TOO_MANY_DECIMALS"
	ValidationTooComplex       ValidationKind = "TOO_COMPLEX"
	ValidationInvalidCharacter ValidationKind = "INVALID_CHARACTER"
	ValidationDuplicate        ValidationKind = "DUPLICATE"
)

// ValidationError reports a recoverable input rejection. It is surfaced to
// the UI as a human-readable message; the operation that triggered it is
// simply not performed.
type ValidationError struct {
	Kind   ValidationKind
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for the given field and rule.
func NewValidationError(kind ValidationKind, field, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// PersistenceError wraps a failure of the underlying value store. It is
// propagated to the caller as a typed failure; all maintenance operations are
// idempotent and safe to re-invoke after one.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// WrapPersistence wraps err as a PersistenceError unless it is nil or already
// a domain error the caller should see unchanged (ErrNotFound, validation).
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
