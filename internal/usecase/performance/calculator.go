// Package performance computes period-over-period change for one account or
// the whole portfolio: percentage and absolute deltas against a baseline
// selected by fixed lookback rules, degrading to "no data" instead of failing
// when history is insufficient.
package performance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/usecase/timeline"
)

// Period identifies a performance lookback window.
type Period string

const (
	PeriodLastUpdate  Period = "lastUpdate"
	PeriodOneMonth    Period = "oneMonth"
	PeriodThreeMonths Period = "threeMonths"
	PeriodOneYear     Period = "oneYear"
	PeriodAllTime     Period = "allTime"
)

// ParsePeriod converts a raw period string to a Period.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodLastUpdate, PeriodOneMonth, PeriodThreeMonths, PeriodOneYear, PeriodAllTime:
		return Period(raw), nil
	}
	return "", fmt.Errorf("unknown performance period %q", raw)
}

// lookbackDays returns the fixed window size for the windowed periods.
func (p Period) lookbackDays() (int, bool) {
	switch p {
	case PeriodOneMonth:
		return 30, true
	case PeriodThreeMonths:
		return 90, true
	case PeriodOneYear:
		return 365, true
	}
	return 0, false
}

// Label returns the human-readable default label for the period.
func (p Period) Label() string {
	switch p {
	case PeriodLastUpdate:
		return "Since last update"
	case PeriodOneMonth:
		return "Past month"
	case PeriodThreeMonths:
		return "Past 3 months"
	case PeriodOneYear:
		return "Past year"
	case PeriodAllTime:
		return "All time"
	}
	return string(p)
}

// Result is a performance summary for one period. When HasData is false the
// remaining numeric fields are zero and the label still identifies the period.
type Result struct {
	Percentage  float64
	Absolute    decimal.Decimal
	IsPositive  bool
	HasData     bool
	PeriodLabel string
}

var hundred = decimal.NewFromInt(100)

// noData is the graceful-degradation result for a period without enough
// history (or with a zero baseline, where a percentage is undefined).
func noData(period Period) Result {
	return Result{Absolute: decimal.Zero, PeriodLabel: period.Label()}
}

// compute derives the delta between a baseline and a current point. A zero
// baseline reports HasData=false: percentage change from zero is undefined.
func compute(baseline, current domain.ChartDataPoint, label string) Result {
	if !baseline.Value.IsPositive() {
		return Result{Absolute: decimal.Zero, PeriodLabel: label}
	}
	absolute := current.Value.Sub(baseline.Value)
	percentage, _ := absolute.Div(baseline.Value).Mul(hundred).Float64()
	return Result{
		Percentage:  percentage,
		Absolute:    absolute,
		IsPositive:  !absolute.IsNegative(),
		HasData:     true,
		PeriodLabel: label,
	}
}

// selectBaseline picks the baseline and current points for a period from a
// chronologically sorted point sequence. usedFallback reports that a windowed
// period had no point at or before its cutoff and fell back to the earliest
// point.
func selectBaseline(points []domain.ChartDataPoint, period Period, now time.Time) (baseline, current domain.ChartDataPoint, usedFallback, ok bool) {
	switch period {
	case PeriodLastUpdate:
		if len(points) < 2 {
			return baseline, current, false, false
		}
		return points[len(points)-2], points[len(points)-1], false, true

	case PeriodAllTime:
		if len(points) < 2 {
			return baseline, current, false, false
		}
		return points[0], points[len(points)-1], false, true

	default:
		days, windowed := period.lookbackDays()
		if !windowed || len(points) == 0 {
			return baseline, current, false, false
		}
		cutoff := now.AddDate(0, 0, -days)
		baseline = points[0]
		usedFallback = true
		for _, p := range points {
			if p.Date.After(cutoff) {
				break
			}
			baseline = p
			usedFallback = false
		}
		return baseline, points[len(points)-1], usedFallback, true
	}
}

// Calculator computes account and portfolio performance, memoizing results
// per (scope, period) behind a fingerprint of the contributing data.
type Calculator struct {
	UpdateRepo domain.UpdateRepository
	Timeline   *timeline.Service

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	cache *resultCache
}

// NewCalculator creates a new Calculator instance
func NewCalculator(updateRepo domain.UpdateRepository, timelineService *timeline.Service) *Calculator {
	return &Calculator{
		UpdateRepo: updateRepo,
		Timeline:   timelineService,
		Now:        time.Now,
		cache:      newResultCache(),
	}
}

// Invalidate drops all memoized results. The account use case calls it on
// every update mutation.
func (c *Calculator) Invalidate() {
	c.cache.clear()
}

// AccountPerformance computes the requested period's change for one account.
func (c *Calculator) AccountPerformance(ctx context.Context, accountID uuid.UUID, period Period) (Result, error) {
	updates, err := c.UpdateRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch updates: %w", err)
	}

	points := make([]domain.ChartDataPoint, len(updates))
	for i, update := range updates {
		points[i] = domain.ChartDataPoint{Date: update.Date, Value: update.Value}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	key := cacheKey{scope: "account:" + accountID.String(), period: period}
	fingerprint := fingerprintPoints(points)
	if result, ok := c.cache.get(key, fingerprint); ok {
		return result, nil
	}

	baseline, current, _, ok := selectBaseline(points, period, c.Now())
	if !ok {
		result := noData(period)
		c.cache.put(key, fingerprint, result)
		return result, nil
	}

	result := compute(baseline, current, period.Label())
	c.cache.put(key, fingerprint, result)
	return result, nil
}

// PortfolioPerformance computes the requested period's change across the
// given accounts, replaying the timeline so baseline and current are
// portfolio-total points. When a windowed period had no data at its cutoff
// and fell back to the earliest point, the label reports the date actually
// used as "Since <date>".
func (c *Calculator) PortfolioPerformance(ctx context.Context, accountIDs []uuid.UUID, period Period) (Result, error) {
	points, err := c.Timeline.BuildPortfolio(ctx, accountIDs)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build portfolio timeline: %w", err)
	}

	key := cacheKey{scope: portfolioScope(accountIDs), period: period}
	fingerprint := fingerprintPoints(points)
	if result, ok := c.cache.get(key, fingerprint); ok {
		return result, nil
	}

	baseline, current, usedFallback, ok := selectBaseline(points, period, c.Now())
	if !ok {
		result := noData(period)
		c.cache.put(key, fingerprint, result)
		return result, nil
	}

	label := period.Label()
	if usedFallback {
		label = "Since " + baseline.Date.Format("Jan 2, 2006")
	}

	result := compute(baseline, current, label)
	c.cache.put(key, fingerprint, result)
	return result, nil
}

func portfolioScope(accountIDs []uuid.UUID) string {
	ids := make([]string, len(accountIDs))
	for i, id := range accountIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	scope := "portfolio"
	for _, id := range ids {
		scope += ":" + id
	}
	return scope
}
