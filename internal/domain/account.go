package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxAccountNameLength is the maximum length of an account name, in runes,
// after trimming.
const MaxAccountNameLength = 50

// Account represents a single money-holding entity (bank account, investment
// pot, etc). It owns a collection of Updates and, when snapshot maintenance is
// enabled, a collection of AccountSnapshots; both are cascade-deleted with it.
type Account struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	IsActive  bool
	ClosedAt  *time.Time
}

// Validate ensures the account adheres to domain rules.
// Full name validation (complexity guards, duplicate check) lives in the
// validation use case; this covers the structural invariants only.
func (a *Account) Validate() error {
	trimmed := strings.TrimSpace(a.Name)
	if trimmed == "" {
		return NewValidationError(ValidationEmpty, "name", "account name cannot be empty")
	}
	if trimmed != a.Name {
		return NewValidationError(ValidationBadFormat, "name", "account name must be trimmed")
	}
	if utf8.RuneCountInString(a.Name) > MaxAccountNameLength {
		return NewValidationError(ValidationTooLong, "name", "account name exceeds maximum length")
	}
	if !a.IsActive && a.ClosedAt == nil {
		return NewValidationError(ValidationBadFormat, "closedAt", "inactive account must carry a close timestamp")
	}
	return nil
}

// CreationDay returns the account's creation timestamp truncated to a UTC
// calendar day. Snapshot coverage starts on this day.
func (a *Account) CreationDay() time.Time {
	return DayOf(a.CreatedAt)
}
