// Package snapshot maintains the derived one-value-per-calendar-day cache for
// accounts and the portfolio. It is a read optimization over the timeline
// replay, never the source of truth: every entry point is idempotent so a
// failed run is recovered by calling it again.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// Maintainer keeps account and portfolio snapshots forward-filled and
// consistent under insertion and deletion of historical updates. All mutating
// entry points are serialized by an internal mutex: the gap-filling logic
// reads existing snapshots before writing new ones, so interleaved writers
// could otherwise forward-fill from stale values or duplicate a day.
type Maintainer struct {
	AccountRepo  domain.AccountRepository
	UpdateRepo   domain.UpdateRepository
	SnapshotRepo domain.SnapshotRepository
	Logger       *zap.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// NewMaintainer creates a new Maintainer instance
func NewMaintainer(
	accountRepo domain.AccountRepository,
	updateRepo domain.UpdateRepository,
	snapshotRepo domain.SnapshotRepository,
	logger *zap.Logger,
) *Maintainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maintainer{
		AccountRepo:  accountRepo,
		UpdateRepo:   updateRepo,
		SnapshotRepo: snapshotRepo,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (m *Maintainer) today() time.Time {
	return domain.DayOf(m.Now())
}

// endOfDay returns the last instant of the given UTC calendar day.
func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// RecordAccountSnapshot upserts the account's snapshot for the day containing
// date, filling any missing snapshots up to that day first. Called whenever a
// new update is recorded.
func (m *Maintainer) RecordAccountSnapshot(ctx context.Context, account *domain.Account, value decimal.Decimal, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := domain.DayOf(date)
	if err := m.fillMissing(ctx, account, day); err != nil {
		return err
	}

	err := m.SnapshotRepo.UpsertAccountSnapshot(ctx, &domain.AccountSnapshot{
		ID:        uuid.New(),
		AccountID: account.ID,
		Date:      day,
		Value:     value,
	})
	return domain.WrapPersistence("account snapshot upsert", err)
}

// FillMissingSnapshots ensures the account has one snapshot per calendar day
// from its creation day up to upTo inclusive. Existing days are skipped, so
// calling it twice is safe and produces no duplicates.
func (m *Maintainer) FillMissingSnapshots(ctx context.Context, account *domain.Account, upTo time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fillMissing(ctx, account, domain.DayOf(upTo))
}

func (m *Maintainer) fillMissing(ctx context.Context, account *domain.Account, upTo time.Time) error {
	var firstErr error
	for day := account.CreationDay(); !day.After(upTo); day = day.AddDate(0, 0, 1) {
		_, err := m.SnapshotRepo.GetAccountSnapshot(ctx, account.ID, day)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.WrapPersistence("account snapshot lookup", err)
		}

		value, ok, err := m.forwardFillValue(ctx, account.ID, day)
		if err != nil {
			return err
		}
		if !ok {
			// No update and no prior snapshot yet; nothing to fill.
			continue
		}

		err = m.SnapshotRepo.UpsertAccountSnapshot(ctx, &domain.AccountSnapshot{
			ID:        uuid.New(),
			AccountID: account.ID,
			Date:      day,
			Value:     value,
		})
		if err != nil {
			// Partial fills are fine: the next invocation resumes at
			// the gap. Log and keep going.
			m.Logger.Warn("snapshot fill failed for day",
				zap.String("account_id", account.ID.String()),
				zap.Time("day", day),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return domain.WrapPersistence("snapshot fill", firstErr)
}

// forwardFillValue computes the value an account snapshot should carry for a
// day: the latest update on-or-before the end of that day, else the nearest
// prior snapshot's value.
func (m *Maintainer) forwardFillValue(ctx context.Context, accountID uuid.UUID, day time.Time) (decimal.Decimal, bool, error) {
	update, err := m.UpdateRepo.LatestOnOrBefore(ctx, accountID, endOfDay(day))
	if err == nil {
		return update.Value, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false, domain.WrapPersistence("update lookup", err)
	}

	prior, err := m.SnapshotRepo.LatestAccountSnapshotBefore(ctx, accountID, day)
	if err == nil {
		return prior.Value, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false, domain.WrapPersistence("snapshot lookup", err)
	}
	return decimal.Zero, false, nil
}

// DeleteAccountUpdate deletes the update and repairs the snapshot cache for
// the affected window: from the update's day to the next update's day, or
// today when the deleted update was the latest. Remaining updates are
// forward-filled through the window; when none remain at all, the window is
// filled with zero and a data-integrity warning is logged.
func (m *Maintainer) DeleteAccountUpdate(ctx context.Context, update *domain.Update, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update.AccountID != account.ID {
		return domain.ErrOrphanUpdate
	}

	// Window end must be determined before the row disappears.
	windowStart := update.Day()
	windowEnd := m.today()
	next, err := m.UpdateRepo.FirstAfter(ctx, account.ID, update.Date)
	switch {
	case err == nil:
		windowEnd = domain.DayOf(next.Date)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.WrapPersistence("next update lookup", err)
	}

	if err := m.UpdateRepo.Delete(ctx, update.ID); err != nil {
		return domain.WrapPersistence("update delete", err)
	}

	if err := m.SnapshotRepo.DeleteAccountSnapshotsInRange(ctx, account.ID, windowStart, windowEnd); err != nil {
		return domain.WrapPersistence("snapshot window delete", err)
	}

	carry, err := m.carryValueInto(ctx, account, windowStart)
	if err != nil {
		return err
	}

	for day := windowStart; !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		value := carry
		remaining, err := m.UpdateRepo.LatestOnOrBefore(ctx, account.ID, endOfDay(day))
		switch {
		case err == nil:
			value = remaining.Value
		case !errors.Is(err, domain.ErrNotFound):
			return domain.WrapPersistence("update lookup", err)
		}

		err = m.SnapshotRepo.UpsertAccountSnapshot(ctx, &domain.AccountSnapshot{
			ID:        uuid.New(),
			AccountID: account.ID,
			Date:      day,
			Value:     value,
		})
		if err != nil {
			return domain.WrapPersistence("account snapshot upsert", err)
		}
	}

	return m.recalculatePortfolio(ctx, windowStart)
}

// carryValueInto picks the value carried into a recalculation window: the
// last update before the window, else the earliest remaining update's value,
// else zero with a logged warning.
func (m *Maintainer) carryValueInto(ctx context.Context, account *domain.Account, windowStart time.Time) (decimal.Decimal, error) {
	prior, err := m.UpdateRepo.LatestOnOrBefore(ctx, account.ID, windowStart.Add(-time.Nanosecond))
	if err == nil {
		return prior.Value, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, domain.WrapPersistence("update lookup", err)
	}

	remaining, err := m.UpdateRepo.ListByAccount(ctx, account.ID)
	if err != nil {
		return decimal.Zero, domain.WrapPersistence("update list", err)
	}
	if len(remaining) > 0 {
		return remaining[0].Value, nil
	}

	m.Logger.Warn("deleted the only update for account, falling back to zero baseline",
		zap.String("account_id", account.ID.String()),
		zap.String("account_name", account.Name))
	return decimal.Zero, nil
}

// AccountValueAt answers "what was this account worth on this date": the
// same-day snapshot if present, else the latest snapshot strictly before the
// date, else the latest update on-or-before it. The boolean is false when the
// account has no data at or before the date.
func (m *Maintainer) AccountValueAt(ctx context.Context, account *domain.Account, date time.Time) (decimal.Decimal, bool, error) {
	day := domain.DayOf(date)

	snap, err := m.SnapshotRepo.GetAccountSnapshot(ctx, account.ID, day)
	if err == nil {
		return snap.Value, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false, domain.WrapPersistence("snapshot lookup", err)
	}

	prior, err := m.SnapshotRepo.LatestAccountSnapshotBefore(ctx, account.ID, day)
	if err == nil {
		return prior.Value, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false, domain.WrapPersistence("snapshot lookup", err)
	}

	update, err := m.UpdateRepo.LatestOnOrBefore(ctx, account.ID, date)
	if err == nil {
		return update.Value, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false, domain.WrapPersistence("update lookup", err)
	}
	return decimal.Zero, false, nil
}

// RecordPortfolioSnapshot upserts the portfolio-wide snapshot for the day
// containing date, summing the value of every active account on that day.
func (m *Maintainer) RecordPortfolioSnapshot(ctx context.Context, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordPortfolioDay(ctx, domain.DayOf(date))
}

func (m *Maintainer) recordPortfolioDay(ctx context.Context, day time.Time) error {
	accounts, err := m.AccountRepo.List(ctx, true)
	if err != nil {
		return domain.WrapPersistence("account list", err)
	}

	total := decimal.Zero
	for _, account := range accounts {
		value, ok, err := m.AccountValueAt(ctx, account, endOfDay(day))
		if err != nil {
			return err
		}
		if ok {
			total = total.Add(value)
		}
	}

	err = m.SnapshotRepo.UpsertPortfolioSnapshot(ctx, &domain.PortfolioSnapshot{
		ID:         uuid.New(),
		Date:       day,
		TotalValue: total,
	})
	return domain.WrapPersistence("portfolio snapshot upsert", err)
}

// RecalculatePortfolioSnapshots deletes and rebuilds every portfolio snapshot
// from the day containing from to today. Each day's write is the atomic unit:
// cancellation is honored between whole-day iterations only.
func (m *Maintainer) RecalculatePortfolioSnapshots(ctx context.Context, from time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recalculatePortfolio(ctx, from)
}

func (m *Maintainer) recalculatePortfolio(ctx context.Context, from time.Time) error {
	start := domain.DayOf(from)
	if err := m.SnapshotRepo.DeletePortfolioSnapshotsFrom(ctx, start); err != nil {
		return domain.WrapPersistence("portfolio snapshot delete", err)
	}

	for day := start; !day.After(m.today()); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.recordPortfolioDay(ctx, day); err != nil {
			return err
		}
	}
	return nil
}

// EnsureCoverage brings every account's snapshot series, and the portfolio
// series, up to today. Idempotent maintenance entry point, safe to invoke on
// every app resume or on a schedule.
func (m *Maintainer) EnsureCoverage(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts, err := m.AccountRepo.List(ctx, false)
	if err != nil {
		return domain.WrapPersistence("account list", err)
	}

	today := m.today()
	earliest := today
	for _, account := range accounts {
		if err := m.fillMissing(ctx, account, today); err != nil {
			return fmt.Errorf("failed to fill snapshots for account %s: %w", account.ID, err)
		}
		if day := account.CreationDay(); day.Before(earliest) {
			earliest = day
		}
	}

	if len(accounts) == 0 {
		return nil
	}

	for day := earliest; !day.After(today); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := m.SnapshotRepo.GetPortfolioSnapshot(ctx, day)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.WrapPersistence("portfolio snapshot lookup", err)
		}
		if err := m.recordPortfolioDay(ctx, day); err != nil {
			return err
		}
	}
	return nil
}
