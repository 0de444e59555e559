// Package timeline reconstructs chronologically consistent portfolio-value
// sequences from sparse, irregularly-timed per-account updates. Build is the
// canonical ground-truth computation; the snapshot maintainer exists purely
// to avoid replaying it from scratch on every read.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// Build replays the given updates in chronological order, carrying forward
// each account's last known value, and emits one portfolio-total point per
// update. Ties on the same timestamp are broken by (account ID, insertion
// order), so the output is deterministic regardless of fetch order.
//
// Empty input yields empty output; the output length always equals the input
// length and output dates are non-decreasing.
func Build(updates []*domain.Update) []domain.ChartDataPoint {
	if len(updates) == 0 {
		return nil
	}

	sorted := make([]*domain.Update, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		if sorted[i].AccountID != sorted[j].AccountID {
			return sorted[i].AccountID.String() < sorted[j].AccountID.String()
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	lastKnown := make(map[uuid.UUID]decimal.Decimal)
	points := make([]domain.ChartDataPoint, 0, len(sorted))
	running := decimal.Zero
	for _, update := range sorted {
		if previous, ok := lastKnown[update.AccountID]; ok {
			running = running.Sub(previous)
		}
		lastKnown[update.AccountID] = update.Value
		running = running.Add(update.Value)

		points = append(points, domain.ChartDataPoint{
			Date:  update.Date,
			Value: running,
		})
	}
	return points
}

// FilterFrom returns the sub-sequence of points from start onward. When no
// point falls exactly on start, the latest point strictly before it is
// prepended so a filtered chart does not visually begin from nothing.
func FilterFrom(points []domain.ChartDataPoint, start time.Time) []domain.ChartDataPoint {
	if len(points) == 0 {
		return nil
	}

	first := len(points)
	for i, p := range points {
		if !p.Date.Before(start) {
			first = i
			break
		}
	}

	exactStart := first < len(points) && points[first].Date.Equal(start)
	if exactStart || first == 0 {
		return points[first:]
	}

	filtered := make([]domain.ChartDataPoint, 0, len(points)-first+1)
	filtered = append(filtered, points[first-1])
	filtered = append(filtered, points[first:]...)
	return filtered
}

// SinceLastUpdate returns the last two points of the timeline, or the whole
// timeline when fewer than two points exist.
func SinceLastUpdate(points []domain.ChartDataPoint) []domain.ChartDataPoint {
	if len(points) <= 2 {
		return points
	}
	return points[len(points)-2:]
}

// Service resolves account identifiers against the value store and builds
// portfolio timelines from the resulting updates. Heavy operations accept
// identifiers rather than live entities, so callers may invoke them from any
// execution context.
type Service struct {
	AccountRepo domain.AccountRepository
	UpdateRepo  domain.UpdateRepository
}

// NewService creates a new timeline Service instance
func NewService(accountRepo domain.AccountRepository, updateRepo domain.UpdateRepository) *Service {
	return &Service{
		AccountRepo: accountRepo,
		UpdateRepo:  updateRepo,
	}
}

// BuildPortfolio builds the portfolio timeline for the given accounts,
// excluding inactive accounts.
func (s *Service) BuildPortfolio(ctx context.Context, accountIDs []uuid.UUID) ([]domain.ChartDataPoint, error) {
	return s.build(ctx, accountIDs, false)
}

// BuildPortfolioAll builds the portfolio timeline for the given accounts,
// including inactive ones. Used for historical views that must not drop
// closed accounts.
func (s *Service) BuildPortfolioAll(ctx context.Context, accountIDs []uuid.UUID) ([]domain.ChartDataPoint, error) {
	return s.build(ctx, accountIDs, true)
}

func (s *Service) build(ctx context.Context, accountIDs []uuid.UUID, includeInactive bool) ([]domain.ChartDataPoint, error) {
	accounts, err := s.AccountRepo.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounts: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(accounts))
	for _, account := range accounts {
		if !includeInactive && !account.IsActive {
			continue
		}
		ids = append(ids, account.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	updates, err := s.UpdateRepo.ListByAccounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updates: %w", err)
	}

	return Build(updates), nil
}
