package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxUpdateValue is the largest value a single update may record.
var MaxUpdateValue = decimal.RequireFromString("999999999.99")

// Update is an immutable point-in-time value observation for one Account.
// Updates are never mutated after creation; historical corrections happen by
// deleting the update, which triggers snapshot recalculation for the affected
// date range.
type Update struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Value     decimal.Decimal
	// Date is when the value was observed. Multiple updates may share a
	// calendar day, for the same or different accounts.
	Date time.Time
	// CreatedAt records insertion order and breaks ties between updates
	// sharing the exact same Date.
	CreatedAt time.Time
}

// Validate ensures the update adheres to domain rules. Values arriving
// through the validation use case always pass; this guards direct
// construction paths.
func (u *Update) Validate() error {
	if u.AccountID == uuid.Nil {
		return ErrOrphanUpdate
	}
	if u.Value.IsNegative() {
		return NewValidationError(ValidationNegative, "value", "update value cannot be negative")
	}
	if u.Value.GreaterThan(MaxUpdateValue) {
		return NewValidationError(ValidationTooLarge, "value", "update value exceeds maximum")
	}
	if !u.Value.Equal(u.Value.Round(2)) {
		return NewValidationError(ValidationTooManyDecimals, "value", "update value has more than two decimal places")
	}
	return nil
}

// Day returns the update's observation date truncated to a UTC calendar day.
func (u *Update) Day() time.Time {
	return DayOf(u.Date)
}
