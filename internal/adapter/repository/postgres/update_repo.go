package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// updateRepository implements domain.UpdateRepository
type updateRepository struct {
	db *DB
}

// NewUpdateRepository creates a new update repository
func NewUpdateRepository(db *DB) domain.UpdateRepository {
	return &updateRepository{db: db}
}

const updateColumns = "id, account_id, value, date, created_at"

func scanUpdate(row interface{ Scan(...any) error }) (*domain.Update, error) {
	var update domain.Update
	var valueStr string
	if err := row.Scan(&update.ID, &update.AccountID, &valueStr, &update.Date, &update.CreatedAt); err != nil {
		return nil, err
	}

	// Parse value (DECIMAL)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse value: %w", err)
	}
	update.Value = value
	return &update, nil
}

// GetByID retrieves an update by its ID
func (r *updateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Update, error) {
	query := `SELECT ` + updateColumns + ` FROM updates WHERE id = $1`

	update, err := scanUpdate(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get update: %w", err)
	}
	return update, nil
}

// Create creates a new update
func (r *updateRepository) Create(ctx context.Context, update *domain.Update) error {
	query := `
		INSERT INTO updates (id, account_id, value, date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		update.ID,
		update.AccountID,
		update.Value.String(),
		update.Date,
		update.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert update: %w", err)
	}
	return nil
}

// Delete removes an update
func (r *updateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM updates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete update: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all updates owned by the given account
func (r *updateRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM updates WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete updates for account: %w", err)
	}
	return nil
}

// ListByAccount retrieves all updates for one account, date ascending
func (r *updateRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Update, error) {
	return r.ListByAccounts(ctx, []uuid.UUID{accountID})
}

// ListByAccounts retrieves all updates for the given account set, date ascending
func (r *updateRepository) ListByAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*domain.Update, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + updateColumns + `
		FROM updates
		WHERE account_id = ANY($1)
		ORDER BY date, created_at
	`

	rawIDs := make([]string, len(accountIDs))
	for i, id := range accountIDs {
		rawIDs[i] = id.String()
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, pq.Array(rawIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list updates: %w", err)
	}
	defer rows.Close()

	var updates []*domain.Update
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		updates = append(updates, update)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate updates: %w", err)
	}
	return updates, nil
}

// LatestOnOrBefore retrieves the most recent update with date <= t
func (r *updateRepository) LatestOnOrBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	query := `
		SELECT ` + updateColumns + `
		FROM updates
		WHERE account_id = $1 AND date <= $2
		ORDER BY date DESC, created_at DESC
		LIMIT 1
	`

	update, err := scanUpdate(r.db.conn(ctx).QueryRowContext(ctx, query, accountID, t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no update for account %s at or before %s: %w", accountID, t, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest update: %w", err)
	}
	return update, nil
}

// FirstAfter retrieves the earliest update with date > t
func (r *updateRepository) FirstAfter(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	query := `
		SELECT ` + updateColumns + `
		FROM updates
		WHERE account_id = $1 AND date > $2
		ORDER BY date, created_at
		LIMIT 1
	`

	update, err := scanUpdate(r.db.conn(ctx).QueryRowContext(ctx, query, accountID, t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no update for account %s after %s: %w", accountID, t, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get next update: %w", err)
	}
	return update, nil
}
