// Package memory provides an in-process value store implementing the domain
// repository interfaces. It backs the use-case tests and the in-process
// end-to-end test, and is interchangeable with the postgres adapter.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// Store holds all entities behind one RWMutex. A single lock keeps the
// forward-fill read-then-write sequences consistent, matching the
// serialization the engine expects from the value store.
type Store struct {
	mu                 sync.RWMutex
	accounts           map[uuid.UUID]domain.Account
	updates            map[uuid.UUID]domain.Update
	accountSnapshots   map[uuid.UUID]map[time.Time]domain.AccountSnapshot // accountID -> day -> snapshot
	portfolioSnapshots map[time.Time]domain.PortfolioSnapshot
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:           make(map[uuid.UUID]domain.Account),
		updates:            make(map[uuid.UUID]domain.Update),
		accountSnapshots:   make(map[uuid.UUID]map[time.Time]domain.AccountSnapshot),
		portfolioSnapshots: make(map[time.Time]domain.PortfolioSnapshot),
	}
}

// InTransaction implements domain.TransactionManager. The memory store has no
// rollback; it serializes the function against all other writers, which is
// what the engine's tests need from it.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func sortUpdates(out []*domain.Update) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

/* ---- Account repository ---- */

type AccountRepo struct{ s *Store }

// NewAccountRepository creates a new in-memory account repository
func NewAccountRepository(s *Store) domain.AccountRepository {
	return &AccountRepo{s: s}
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &account, nil
}

func (r *AccountRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, ok := r.s.accounts[id]; ok {
			a := account
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *AccountRepo) List(ctx context.Context, onlyActive bool) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Account, 0, len(r.s.accounts))
	for _, account := range r.s.accounts {
		if onlyActive && !account.IsActive {
			continue
		}
		a := account
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AccountRepo) Names(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0, len(r.s.accounts))
	for _, account := range r.s.accounts {
		out = append(out, account.Name)
	}
	sort.Strings(out)
	return out, nil
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepo) Save(ctx context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[account.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

/* ---- Update repository ---- */

type UpdateRepo struct{ s *Store }

// NewUpdateRepository creates a new in-memory update repository
func NewUpdateRepository(s *Store) domain.UpdateRepository {
	return &UpdateRepo{s: s}
}

func (r *UpdateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Update, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	update, ok := r.s.updates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &update, nil
}

func (r *UpdateRepo) Create(ctx context.Context, update *domain.Update) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[update.AccountID]; !ok {
		return domain.ErrOrphanUpdate
	}
	r.s.updates[update.ID] = *update
	return nil
}

func (r *UpdateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.updates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.updates, id)
	return nil
}

func (r *UpdateRepo) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, update := range r.s.updates {
		if update.AccountID == accountID {
			delete(r.s.updates, id)
		}
	}
	return nil
}

func (r *UpdateRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Update, error) {
	return r.ListByAccounts(ctx, []uuid.UUID{accountID})
}

func (r *UpdateRepo) ListByAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*domain.Update, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	members := make(map[uuid.UUID]bool, len(accountIDs))
	for _, id := range accountIDs {
		members[id] = true
	}
	out := make([]*domain.Update, 0)
	for _, update := range r.s.updates {
		if members[update.AccountID] {
			u := update
			out = append(out, &u)
		}
	}
	sortUpdates(out)
	return out, nil
}

func (r *UpdateRepo) LatestOnOrBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *domain.Update
	for _, update := range r.s.updates {
		if update.AccountID != accountID || update.Date.After(t) {
			continue
		}
		u := update
		if best == nil || u.Date.After(best.Date) ||
			(u.Date.Equal(best.Date) && u.CreatedAt.After(best.CreatedAt)) {
			best = &u
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *UpdateRepo) FirstAfter(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *domain.Update
	for _, update := range r.s.updates {
		if update.AccountID != accountID || !update.Date.After(t) {
			continue
		}
		u := update
		if best == nil || u.Date.Before(best.Date) ||
			(u.Date.Equal(best.Date) && u.CreatedAt.Before(best.CreatedAt)) {
			best = &u
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

/* ---- Snapshot repository ---- */

type SnapshotRepo struct{ s *Store }

// NewSnapshotRepository creates a new in-memory snapshot repository
func NewSnapshotRepository(s *Store) domain.SnapshotRepository {
	return &SnapshotRepo{s: s}
}

func (r *SnapshotRepo) UpsertAccountSnapshot(ctx context.Context, snapshot *domain.AccountSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	days, ok := r.s.accountSnapshots[snapshot.AccountID]
	if !ok {
		days = make(map[time.Time]domain.AccountSnapshot)
		r.s.accountSnapshots[snapshot.AccountID] = days
	}
	day := domain.DayOf(snapshot.Date)
	if existing, ok := days[day]; ok {
		existing.Value = snapshot.Value
		days[day] = existing
		return nil
	}
	stored := *snapshot
	stored.Date = day
	days[day] = stored
	return nil
}

func (r *SnapshotRepo) GetAccountSnapshot(ctx context.Context, accountID uuid.UUID, day time.Time) (*domain.AccountSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snapshot, ok := r.s.accountSnapshots[accountID][domain.DayOf(day)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snapshot, nil
}

func (r *SnapshotRepo) LatestAccountSnapshotBefore(ctx context.Context, accountID uuid.UUID, day time.Time) (*domain.AccountSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cutoff := domain.DayOf(day)
	var best *domain.AccountSnapshot
	for _, snapshot := range r.s.accountSnapshots[accountID] {
		if !snapshot.Date.Before(cutoff) {
			continue
		}
		snap := snapshot
		if best == nil || snap.Date.After(best.Date) {
			best = &snap
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *SnapshotRepo) ListAccountSnapshots(ctx context.Context, accountID uuid.UUID) ([]*domain.AccountSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.AccountSnapshot, 0, len(r.s.accountSnapshots[accountID]))
	for _, snapshot := range r.s.accountSnapshots[accountID] {
		snap := snapshot
		out = append(out, &snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *SnapshotRepo) DeleteAccountSnapshotsInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fromDay, toDay := domain.DayOf(from), domain.DayOf(to)
	for day := range r.s.accountSnapshots[accountID] {
		if !day.Before(fromDay) && !day.After(toDay) {
			delete(r.s.accountSnapshots[accountID], day)
		}
	}
	return nil
}

func (r *SnapshotRepo) DeleteAccountSnapshotsByAccount(ctx context.Context, accountID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accountSnapshots, accountID)
	return nil
}

func (r *SnapshotRepo) UpsertPortfolioSnapshot(ctx context.Context, snapshot *domain.PortfolioSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := domain.DayOf(snapshot.Date)
	if existing, ok := r.s.portfolioSnapshots[day]; ok {
		existing.TotalValue = snapshot.TotalValue
		r.s.portfolioSnapshots[day] = existing
		return nil
	}
	stored := *snapshot
	stored.Date = day
	r.s.portfolioSnapshots[day] = stored
	return nil
}

func (r *SnapshotRepo) GetPortfolioSnapshot(ctx context.Context, day time.Time) (*domain.PortfolioSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snapshot, ok := r.s.portfolioSnapshots[domain.DayOf(day)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snapshot, nil
}

func (r *SnapshotRepo) ListPortfolioSnapshots(ctx context.Context) ([]*domain.PortfolioSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.PortfolioSnapshot, 0, len(r.s.portfolioSnapshots))
	for _, snapshot := range r.s.portfolioSnapshots {
		snap := snapshot
		out = append(out, &snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *SnapshotRepo) DeletePortfolioSnapshotsFrom(ctx context.Context, from time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fromDay := domain.DayOf(from)
	for day := range r.s.portfolioSnapshots {
		if !day.Before(fromDay) {
			delete(r.s.portfolioSnapshots, day)
		}
	}
	return nil
}
