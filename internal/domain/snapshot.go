package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayOf truncates a timestamp to its UTC calendar day. All snapshot dates and
// day arithmetic in the engine go through this helper.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from one UTC day to another.
// Both arguments are expected to be day-truncated.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// AccountSnapshot is a derived, forward-filled "value as of this calendar day"
// record for one account. When maintained, exactly one snapshot exists per
// (account, calendar day) from account creation to today.
type AccountSnapshot struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	// Date is always a UTC calendar day (midnight).
	Date  time.Time
	Value decimal.Decimal
}

// PortfolioSnapshot is the portfolio-wide counterpart of AccountSnapshot:
// the aggregate total across active accounts for one calendar day.
type PortfolioSnapshot struct {
	ID         uuid.UUID
	Date       time.Time
	TotalValue decimal.Decimal
}

// ChartDataPoint is a transient (date, value) pair produced by the timeline
// builder or snapshot reads. It is never persisted.
type ChartDataPoint struct {
	Date  time.Time
	Value decimal.Decimal
}
