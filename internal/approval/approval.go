// Package approval implements the monthly import approval lifecycle.
//
// Approving a month persists the parsed batch and binds it to a single
// approval row; at most one approval exists per (user, month, year), and
// the store's uniqueness constraint is what makes concurrent approvals
// safe. Undo removes the batch and the approval together, and only for the
// current calendar month.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/monthspan"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateApproval(ctx context.Context, a *domain.MonthlyApproval) error
	GetApproval(ctx context.Context, userID string, month time.Month, year int) (*domain.MonthlyApproval, error)
	DeleteApproval(ctx context.Context, id string) error
	InsertTransactions(ctx context.Context, txns []domain.Transaction) error
	DeleteTransactionsByApproval(ctx context.Context, approvalID string) (int64, error)
}

// Service drives the approve/undo lifecycle.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Approve persists the transaction batch for one period under a new
// approval. The approval row is created first so the uniqueness constraint
// rejects a concurrent double approval before any transaction lands; if the
// batch insert then fails, the approval row is rolled back so a retry
// starts clean.
//
// A period that is already approved returns domain.ErrApprovalExists.
func (s *Service) Approve(ctx context.Context, userID string, month time.Month, year int, txns []domain.Transaction) (*domain.MonthlyApproval, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	approval := &domain.MonthlyApproval{
		ID:         uuid.NewString(),
		UserID:     userID,
		Month:      month,
		Year:       year,
		CreatedAt:  now,
		ApprovedAt: now,
	}

	if err := s.store.CreateApproval(ctx, approval); err != nil {
		if errors.Is(err, domain.ErrApprovalExists) {
			return nil, fmt.Errorf("%s already has an approved import, undo it first: %w",
				domain.FormatPeriod(month, year), domain.ErrApprovalExists)
		}
		return nil, err
	}

	// An approval owns exactly one period; rows outside it never ride in.
	batch := monthspan.Scope(txns, month, year)
	for i := range batch {
		batch[i].UserID = userID
		batch[i].MonthlyApprovalID = approval.ID
	}

	if err := s.store.InsertTransactions(ctx, batch); err != nil {
		// Compensate: without this, the period would stay locked with no
		// transactions behind it.
		if delErr := s.store.DeleteApproval(ctx, approval.ID); delErr != nil {
			return nil, fmt.Errorf("failed to store transactions (approval %s left behind: %v): %w",
				approval.ID, delErr, err)
		}
		return nil, fmt.Errorf("failed to store transactions: %w", err)
	}
	return approval, nil
}

// Undo removes the approved batch for one period. Only the current calendar
// month can be undone; past months are settled history.
//
// Returns the number of transactions removed. A period with no approval
// returns domain.ErrApprovalNotFound; a past period returns
// domain.ErrUndoWindowClosed.
func (s *Service) Undo(ctx context.Context, userID string, month time.Month, year int) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user ID cannot be empty")
	}
	if err := domain.ValidatePeriod(month, year); err != nil {
		return 0, err
	}

	now := s.now()
	if month != now.Month() || year != now.Year() {
		return 0, fmt.Errorf("%s is not the current month: %w",
			domain.FormatPeriod(month, year), domain.ErrUndoWindowClosed)
	}

	approval, err := s.store.GetApproval(ctx, userID, month, year)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("%s has no approved import: %w",
				domain.FormatPeriod(month, year), domain.ErrApprovalNotFound)
		}
		return 0, err
	}

	// Transactions go first: the foreign key would reject deleting the
	// approval while its batch is still live.
	deleted, err := s.store.DeleteTransactionsByApproval(ctx, approval.ID)
	if err != nil {
		return 0, err
	}
	if err := s.store.DeleteApproval(ctx, approval.ID); err != nil {
		return deleted, fmt.Errorf("removed %d transactions but failed to delete approval %s: %w",
			deleted, approval.ID, err)
	}
	return deleted, nil
}
