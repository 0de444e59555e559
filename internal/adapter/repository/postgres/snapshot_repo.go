package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func scanAccountSnapshot(row interface{ Scan(...any) error }) (*domain.AccountSnapshot, error) {
	var snap domain.AccountSnapshot
	var valueStr string
	if err := row.Scan(&snap.ID, &snap.AccountID, &snap.Date, &valueStr); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse value: %w", err)
	}
	snap.Value = value
	return &snap, nil
}

func scanPortfolioSnapshot(row interface{ Scan(...any) error }) (*domain.PortfolioSnapshot, error) {
	var snap domain.PortfolioSnapshot
	var valueStr string
	if err := row.Scan(&snap.ID, &snap.Date, &valueStr); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total value: %w", err)
	}
	snap.TotalValue = value
	return &snap, nil
}

// UpsertAccountSnapshot inserts or overwrites the snapshot for (account, day)
func (r *snapshotRepository) UpsertAccountSnapshot(ctx context.Context, snap *domain.AccountSnapshot) error {
	query := `
		INSERT INTO account_snapshots (id, account_id, date, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, date) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		snap.ID,
		snap.AccountID,
		domain.DayOf(snap.Date),
		snap.Value.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account snapshot: %w", err)
	}
	return nil
}

// GetAccountSnapshot retrieves the snapshot for an exact day
func (r *snapshotRepository) GetAccountSnapshot(ctx context.Context, accountID uuid.UUID, day time.Time) (*domain.AccountSnapshot, error) {
	query := `
		SELECT id, account_id, date, value
		FROM account_snapshots
		WHERE account_id = $1 AND date = $2
	`

	snap, err := scanAccountSnapshot(r.db.conn(ctx).QueryRowContext(ctx, query, accountID, domain.DayOf(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot for account %s on %s: %w", accountID, day.Format("2006-01-02"), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account snapshot: %w", err)
	}
	return snap, nil
}

// LatestAccountSnapshotBefore retrieves the most recent snapshot strictly before day
func (r *snapshotRepository) LatestAccountSnapshotBefore(ctx context.Context, accountID uuid.UUID, day time.Time) (*domain.AccountSnapshot, error) {
	query := `
		SELECT id, account_id, date, value
		FROM account_snapshots
		WHERE account_id = $1 AND date < $2
		ORDER BY date DESC
		LIMIT 1
	`

	snap, err := scanAccountSnapshot(r.db.conn(ctx).QueryRowContext(ctx, query, accountID, domain.DayOf(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no snapshot for account %s before %s: %w", accountID, day.Format("2006-01-02"), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prior account snapshot: %w", err)
	}
	return snap, nil
}

// ListAccountSnapshots retrieves all snapshots for an account, date ascending
func (r *snapshotRepository) ListAccountSnapshots(ctx context.Context, accountID uuid.UUID) ([]*domain.AccountSnapshot, error) {
	query := `
		SELECT id, account_id, date, value
		FROM account_snapshots
		WHERE account_id = $1
		ORDER BY date
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.AccountSnapshot
	for rows.Next() {
		snap, err := scanAccountSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account snapshots: %w", err)
	}
	return snaps, nil
}

// DeleteAccountSnapshotsInRange removes snapshots with from <= date <= to
func (r *snapshotRepository) DeleteAccountSnapshotsInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) error {
	query := `DELETE FROM account_snapshots WHERE account_id = $1 AND date >= $2 AND date <= $3`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, accountID, domain.DayOf(from), domain.DayOf(to))
	if err != nil {
		return fmt.Errorf("failed to delete account snapshots in range: %w", err)
	}
	return nil
}

// DeleteAccountSnapshotsByAccount removes every snapshot owned by the account
func (r *snapshotRepository) DeleteAccountSnapshotsByAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM account_snapshots WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account snapshots: %w", err)
	}
	return nil
}

// UpsertPortfolioSnapshot inserts or overwrites the portfolio snapshot for a day
func (r *snapshotRepository) UpsertPortfolioSnapshot(ctx context.Context, snap *domain.PortfolioSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (id, date, total_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET total_value = EXCLUDED.total_value
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		snap.ID,
		domain.DayOf(snap.Date),
		snap.TotalValue.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio snapshot: %w", err)
	}
	return nil
}

// GetPortfolioSnapshot retrieves the portfolio snapshot for an exact day
func (r *snapshotRepository) GetPortfolioSnapshot(ctx context.Context, day time.Time) (*domain.PortfolioSnapshot, error) {
	query := `SELECT id, date, total_value FROM portfolio_snapshots WHERE date = $1`

	snap, err := scanPortfolioSnapshot(r.db.conn(ctx).QueryRowContext(ctx, query, domain.DayOf(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio snapshot on %s: %w", day.Format("2006-01-02"), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio snapshot: %w", err)
	}
	return snap, nil
}

// ListPortfolioSnapshots retrieves all portfolio snapshots, date ascending
func (r *snapshotRepository) ListPortfolioSnapshots(ctx context.Context) ([]*domain.PortfolioSnapshot, error) {
	query := `SELECT id, date, total_value FROM portfolio_snapshots ORDER BY date`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.PortfolioSnapshot
	for rows.Next() {
		snap, err := scanPortfolioSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolio snapshots: %w", err)
	}
	return snaps, nil
}

// DeletePortfolioSnapshotsFrom removes portfolio snapshots with date >= from
func (r *snapshotRepository) DeletePortfolioSnapshotsFrom(ctx context.Context, from time.Time) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM portfolio_snapshots WHERE date >= $1`, domain.DayOf(from))
	if err != nil {
		return fmt.Errorf("failed to delete portfolio snapshots from date: %w", err)
	}
	return nil
}
