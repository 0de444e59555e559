// Package account owns the account and update lifecycle: creation with an
// initial value, recording new values, deletions with snapshot repair, and
// active/closed toggles. Every mutation flows through here so the snapshot
// maintainer and the performance cache stay consistent.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/usecase/snapshot"
	"github.com/moneta-app/moneta-backend/internal/usecase/validation"
)

// Service handles account lifecycle operations
type Service struct {
	AccountRepo  domain.AccountRepository
	UpdateRepo   domain.UpdateRepository
	SnapshotRepo domain.SnapshotRepository
	Maintainer   *snapshot.Maintainer
	Tx           domain.TransactionManager
	Logger       *zap.Logger

	// Invalidate is called after every update mutation; the performance
	// calculator registers its cache invalidation here.
	Invalidate func()

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new account Service instance
func NewService(
	accountRepo domain.AccountRepository,
	updateRepo domain.UpdateRepository,
	snapshotRepo domain.SnapshotRepository,
	maintainer *snapshot.Maintainer,
	tx domain.TransactionManager,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		AccountRepo:  accountRepo,
		UpdateRepo:   updateRepo,
		SnapshotRepo: snapshotRepo,
		Maintainer:   maintainer,
		Tx:           tx,
		Logger:       logger,
		Invalidate:   func() {},
		Now:          time.Now,
	}
}

func (s *Service) invalidate() {
	if s.Invalidate != nil {
		s.Invalidate()
	}
}

// CreateAccount validates the name and initial value, then creates the
// account together with its first update. The initial value always produces
// an update: an account never exists without at least one observation until
// the user deletes it.
func (s *Service) CreateAccount(ctx context.Context, rawName, rawInitialValue string, at time.Time) (*domain.Account, error) {
	existingNames, err := s.AccountRepo.Names(ctx)
	if err != nil {
		return nil, domain.WrapPersistence("account names fetch", err)
	}

	name, err := validation.AccountName(rawName, existingNames)
	if err != nil {
		return nil, err
	}

	value, err := validation.MonetaryInput(rawInitialValue)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: at,
		IsActive:  true,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	firstUpdate := &domain.Update{
		ID:        uuid.New(),
		AccountID: account.ID,
		Value:     value,
		Date:      at,
		CreatedAt: s.Now(),
	}

	err = s.Tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.AccountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		if err := s.UpdateRepo.Create(ctx, firstUpdate); err != nil {
			return fmt.Errorf("failed to create initial update: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapPersistence("account creation", err)
	}

	if err := s.Maintainer.RecordAccountSnapshot(ctx, account, value, at); err != nil {
		return nil, err
	}
	if err := s.Maintainer.RecordPortfolioSnapshot(ctx, at); err != nil {
		return nil, err
	}

	s.invalidate()
	return account, nil
}

// RecordUpdate validates and records a new value observation for an account.
func (s *Service) RecordUpdate(ctx context.Context, accountID uuid.UUID, rawValue string, at time.Time) (*domain.Update, error) {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}

	value, err := validation.MonetaryInput(rawValue)
	if err != nil {
		return nil, err
	}

	update := &domain.Update{
		ID:        uuid.New(),
		AccountID: account.ID,
		Value:     value,
		Date:      at,
		CreatedAt: s.Now(),
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	if err := s.UpdateRepo.Create(ctx, update); err != nil {
		return nil, domain.WrapPersistence("update creation", err)
	}

	if err := s.Maintainer.RecordAccountSnapshot(ctx, account, value, at); err != nil {
		return nil, err
	}
	if err := s.Maintainer.RecordPortfolioSnapshot(ctx, at); err != nil {
		return nil, err
	}

	s.invalidate()
	return update, nil
}

// DeleteUpdate removes a single historical observation and repairs the
// snapshot cache for the affected date range. The orphan path is explicit:
// an update whose account has vanished is reported, not ignored.
func (s *Service) DeleteUpdate(ctx context.Context, updateID uuid.UUID) error {
	update, err := s.UpdateRepo.GetByID(ctx, updateID)
	if err != nil {
		return fmt.Errorf("failed to resolve update %s: %w", updateID, err)
	}

	account, err := s.AccountRepo.GetByID(ctx, update.AccountID)
	if err != nil {
		return fmt.Errorf("%w: account %s", domain.ErrOrphanUpdate, update.AccountID)
	}

	if err := s.Maintainer.DeleteAccountUpdate(ctx, update, account); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

// CloseAccount marks the account inactive. Its history is retained but it no
// longer contributes to portfolio totals, so those are rebuilt from the close
// day forward.
func (s *Service) CloseAccount(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	return s.toggleActive(ctx, accountID, false, at)
}

// ReopenAccount marks a closed account active again.
func (s *Service) ReopenAccount(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	return s.toggleActive(ctx, accountID, true, at)
}

func (s *Service) toggleActive(ctx context.Context, accountID uuid.UUID, active bool, at time.Time) error {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}
	if account.IsActive == active {
		return nil
	}

	account.IsActive = active
	if active {
		account.ClosedAt = nil
	} else {
		closedAt := at
		account.ClosedAt = &closedAt
	}

	if err := s.AccountRepo.Save(ctx, account); err != nil {
		return domain.WrapPersistence("account save", err)
	}

	if err := s.Maintainer.RecalculatePortfolioSnapshots(ctx, at); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

// DeleteAccount removes an account and everything it owns. The cascade is
// explicit and two-phase, children first, inside one transaction, so the
// snapshot maintainer's recalculation hooks stay in the deletion path.
func (s *Service) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}

	err = s.Tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.SnapshotRepo.DeleteAccountSnapshotsByAccount(ctx, account.ID); err != nil {
			return fmt.Errorf("failed to delete snapshots: %w", err)
		}
		if err := s.UpdateRepo.DeleteByAccount(ctx, account.ID); err != nil {
			return fmt.Errorf("failed to delete updates: %w", err)
		}
		if err := s.AccountRepo.Delete(ctx, account.ID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.WrapPersistence("account deletion", err)
	}

	s.Logger.Info("account deleted",
		zap.String("account_id", account.ID.String()),
		zap.String("account_name", account.Name))

	if err := s.Maintainer.RecalculatePortfolioSnapshots(ctx, account.CreatedAt); err != nil {
		return err
	}

	s.invalidate()
	return nil
}
