package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByIDs retrieves the accounts whose IDs are in the given set.
	// Unknown IDs are skipped, not errors.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Account, error)

	// List retrieves all accounts; when onlyActive is true, inactive
	// accounts are excluded
	List(ctx context.Context, onlyActive bool) ([]*Account, error)

	// Names returns the names of all accounts, active and inactive.
	// Used for the case-insensitive duplicate check at creation time.
	Names(ctx context.Context) ([]string, error)

	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// Save persists changes to an existing account (IsActive/ClosedAt
	// toggles; accounts are otherwise immutable)
	Save(ctx context.Context, account *Account) error

	// Delete removes the account row only. Cascade deletion of updates
	// and snapshots is explicit, two-phase, and owned by the account
	// use case.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpdateRepository defines the interface for update persistence operations.
// All listing methods return updates ordered by (date, created_at) ascending.
type UpdateRepository interface {
	// GetByID retrieves an update by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Update, error)

	// Create creates a new update
	Create(ctx context.Context, update *Update) error

	// Delete removes an update
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAccount removes all updates owned by the given account
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error

	// ListByAccount retrieves all updates for one account
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Update, error)

	// ListByAccounts retrieves all updates for the given account set
	ListByAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*Update, error)

	// LatestOnOrBefore retrieves the most recent update for the account
	// with date <= t, or ErrNotFound
	LatestOnOrBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (*Update, error)

	// FirstAfter retrieves the earliest update for the account with
	// date > t, or ErrNotFound
	FirstAfter(ctx context.Context, accountID uuid.UUID, t time.Time) (*Update, error)
}

// SnapshotRepository defines the interface for derived snapshot persistence.
// Account snapshot dates and portfolio snapshot dates are always UTC calendar
// days.
type SnapshotRepository interface {
	// UpsertAccountSnapshot inserts the snapshot, or overwrites the value
	// of an existing snapshot for the same (account, day)
	UpsertAccountSnapshot(ctx context.Context, snapshot *AccountSnapshot) error

	// GetAccountSnapshot retrieves the snapshot for an exact day, or
	// ErrNotFound
	GetAccountSnapshot(ctx context.Context, accountID uuid.UUID, day time.Time) (*AccountSnapshot, error)

	// LatestAccountSnapshotBefore retrieves the most recent snapshot
	// strictly before the given day, or ErrNotFound
	LatestAccountSnapshotBefore(ctx context.Context, accountID uuid.UUID, day time.Time) (*AccountSnapshot, error)

	// ListAccountSnapshots retrieves all snapshots for the account,
	// ordered by day ascending
	ListAccountSnapshots(ctx context.Context, accountID uuid.UUID) ([]*AccountSnapshot, error)

	// DeleteAccountSnapshotsInRange removes account snapshots with
	// from <= day <= to
	DeleteAccountSnapshotsInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) error

	// DeleteAccountSnapshotsByAccount removes all snapshots owned by the
	// given account
	DeleteAccountSnapshotsByAccount(ctx context.Context, accountID uuid.UUID) error

	// UpsertPortfolioSnapshot inserts or overwrites the portfolio-wide
	// snapshot for a day
	UpsertPortfolioSnapshot(ctx context.Context, snapshot *PortfolioSnapshot) error

	// GetPortfolioSnapshot retrieves the portfolio snapshot for an exact
	// day, or ErrNotFound
	GetPortfolioSnapshot(ctx context.Context, day time.Time) (*PortfolioSnapshot, error)

	// ListPortfolioSnapshots retrieves all portfolio snapshots ordered by
	// day ascending
	ListPortfolioSnapshots(ctx context.Context) ([]*PortfolioSnapshot, error)

	// DeletePortfolioSnapshotsFrom removes portfolio snapshots with
	// day >= from
	DeletePortfolioSnapshotsFrom(ctx context.Context, from time.Time) error
}

// TransactionManager runs a function inside a storage transaction. The
// two-phase cascade deletes (account -> updates -> snapshots) run under it so
// a failed phase never leaves a partially deleted parent.
type TransactionManager interface {
	// InTransaction executes fn atomically; fn's error rolls back
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
