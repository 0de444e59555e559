package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = "id, name, created_at, is_active, closed_at"

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var account domain.Account
	var closedAt sql.NullTime
	if err := row.Scan(&account.ID, &account.Name, &account.CreatedAt, &account.IsActive, &closedAt); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		account.ClosedAt = &t
	}
	return &account, nil
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByIDs retrieves the accounts whose IDs are in the given set
func (r *accountRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY created_at`

	rawIDs := make([]string, len(ids))
	for i, id := range ids {
		rawIDs[i] = id.String()
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, pq.Array(rawIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// List retrieves all accounts, optionally filtered to active ones
func (r *accountRepository) List(ctx context.Context, onlyActive bool) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`
	if onlyActive {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE is_active ORDER BY created_at`
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// Names returns the names of all accounts, active and inactive
func (r *accountRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `SELECT name FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list account names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan account name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account names: %w", err)
	}
	return names, nil
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, created_at, is_active, closed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.CreatedAt,
		account.IsActive,
		account.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// Save persists IsActive/ClosedAt changes to an existing account
func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `UPDATE accounts SET is_active = $2, closed_at = $3 WHERE id = $1`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, account.ID, account.IsActive, account.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("account %s: %w", account.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the account row only
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
