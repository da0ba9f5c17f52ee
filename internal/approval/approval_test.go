package approval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcosogg/budgetflow/internal/domain"
)

// fakeStore mimics the store's approval semantics in memory, including the
// uniqueness constraint and the ownership foreign key.
type fakeStore struct {
	approvals map[string]*domain.MonthlyApproval // keyed by user|month|year
	txns      map[string][]domain.Transaction    // keyed by approval ID

	failInsert        error
	failDeleteTxns    error
	failDeleteApprovl error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		approvals: make(map[string]*domain.MonthlyApproval),
		txns:      make(map[string][]domain.Transaction),
	}
}

func periodKey(userID string, month time.Month, year int) string {
	return fmt.Sprintf("%s|%d|%d", userID, int(month), year)
}

func (f *fakeStore) CreateApproval(_ context.Context, a *domain.MonthlyApproval) error {
	key := periodKey(a.UserID, a.Month, a.Year)
	if _, ok := f.approvals[key]; ok {
		return domain.ErrApprovalExists
	}
	cp := *a
	f.approvals[key] = &cp
	return nil
}

func (f *fakeStore) GetApproval(_ context.Context, userID string, month time.Month, year int) (*domain.MonthlyApproval, error) {
	a, ok := f.approvals[periodKey(userID, month, year)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) DeleteApproval(_ context.Context, id string) error {
	if f.failDeleteApprovl != nil {
		return f.failDeleteApprovl
	}
	for key, a := range f.approvals {
		if a.ID == id {
			if len(f.txns[id]) > 0 {
				return fmt.Errorf("approval %s still owns transactions", id)
			}
			delete(f.approvals, key)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) InsertTransactions(_ context.Context, txns []domain.Transaction) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	for _, t := range txns {
		f.txns[t.MonthlyApprovalID] = append(f.txns[t.MonthlyApprovalID], t)
	}
	return nil
}

func (f *fakeStore) DeleteTransactionsByApproval(_ context.Context, approvalID string) (int64, error) {
	if f.failDeleteTxns != nil {
		return 0, f.failDeleteTxns
	}
	n := int64(len(f.txns[approvalID]))
	delete(f.txns, approvalID)
	return n, nil
}

func newTestService(store Store, now time.Time) *Service {
	s := NewService(store)
	s.now = func() time.Time { return now }
	return s
}

func testTxns(t *testing.T, n int) []domain.Transaction {
	t.Helper()
	txns := make([]domain.Transaction, n)
	for i := range txns {
		out, err := domain.NewTransaction(fmt.Sprintf("t%d", i), "user-1",
			time.Date(2024, 3, i+1, 0, 0, 0, 0, time.UTC),
			"TESCO", decimal.RequireFromString("10.00"), "Groceries")
		if err != nil {
			t.Fatalf("NewTransaction() error = %v", err)
		}
		txns[i] = *out
	}
	return txns
}

var march15 = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestApproveCreatesApprovalAndBatch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)

	approval, err := svc.Approve(context.Background(), "user-1", time.March, 2024, testTxns(t, 3))
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approval.ID == "" {
		t.Error("Approve() returned approval with empty ID")
	}
	if approval.Month != time.March || approval.Year != 2024 {
		t.Errorf("approval period = %v %d, want March 2024", approval.Month, approval.Year)
	}

	stored := store.txns[approval.ID]
	if len(stored) != 3 {
		t.Fatalf("stored %d transactions, want 3", len(stored))
	}
	for _, txn := range stored {
		if txn.MonthlyApprovalID != approval.ID {
			t.Errorf("transaction %s approval ID = %q, want %q", txn.ID, txn.MonthlyApprovalID, approval.ID)
		}
		if txn.UserID != "user-1" {
			t.Errorf("transaction %s user ID = %q, want user-1", txn.ID, txn.UserID)
		}
	}
}

func TestApproveDropsOutOfPeriodRows(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)

	txns := testTxns(t, 2)
	stray := txns[0]
	stray.ID = "stray"
	stray.Date = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	txns = append(txns, stray)

	approval, err := svc.Approve(context.Background(), "user-1", time.March, 2024, txns)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	stored := store.txns[approval.ID]
	if len(stored) != 2 {
		t.Fatalf("stored %d transactions, want 2 (April row dropped)", len(stored))
	}
	for _, txn := range stored {
		if txn.ID == "stray" {
			t.Error("out-of-period transaction rode into the approval")
		}
	}
}

func TestApproveIsExclusivePerPeriod(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "user-1", time.March, 2024, testTxns(t, 1)); err != nil {
		t.Fatalf("first Approve() error = %v", err)
	}

	_, err := svc.Approve(ctx, "user-1", time.March, 2024, testTxns(t, 1))
	if !errors.Is(err, domain.ErrApprovalExists) {
		t.Fatalf("second Approve() error = %v, want ErrApprovalExists", err)
	}
	if got := err.Error(); !errors.Is(err, domain.ErrApprovalExists) || got == "" {
		t.Errorf("conflict error = %q, want a message naming the period", got)
	}

	if _, err := svc.Approve(ctx, "user-1", time.April, 2024, testTxns(t, 1)); err != nil {
		t.Errorf("Approve() for a different period error = %v, want nil", err)
	}
	if _, err := svc.Approve(ctx, "user-2", time.March, 2024, testTxns(t, 1)); err != nil {
		t.Errorf("Approve() for a different user error = %v, want nil", err)
	}
}

func TestApproveRollsBackOnInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.failInsert = fmt.Errorf("disk full")
	svc := newTestService(store, march15)

	_, err := svc.Approve(context.Background(), "user-1", time.March, 2024, testTxns(t, 2))
	if err == nil {
		t.Fatal("Approve() with failing insert should return an error")
	}
	if len(store.approvals) != 0 {
		t.Error("approval row not rolled back after insert failure")
	}

	// The period must be approvable again after the rollback.
	store.failInsert = nil
	if _, err := svc.Approve(context.Background(), "user-1", time.March, 2024, testTxns(t, 2)); err != nil {
		t.Errorf("Approve() retry after rollback error = %v, want nil", err)
	}
}

func TestApproveValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), march15)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "", time.March, 2024, nil); err == nil {
		t.Error("Approve() with empty user ID should return an error")
	}
	if _, err := svc.Approve(ctx, "user-1", time.Month(0), 2024, nil); err == nil {
		t.Error("Approve() with invalid month should return an error")
	}
	if _, err := svc.Approve(ctx, "user-1", time.March, 1999, nil); err == nil {
		t.Error("Approve() with out-of-range year should return an error")
	}
}

func TestUndoRemovesBatchAndApproval(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "user-1", time.March, 2024, testTxns(t, 3)); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	deleted, err := svc.Undo(ctx, "user-1", time.March, 2024)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("Undo() deleted %d transactions, want 3", deleted)
	}
	if len(store.approvals) != 0 {
		t.Error("approval row survived the undo")
	}

	// Approve after undo works again: the full round trip.
	if _, err := svc.Approve(ctx, "user-1", time.March, 2024, testTxns(t, 1)); err != nil {
		t.Errorf("Approve() after Undo() error = %v, want nil", err)
	}
}

func TestUndoOnlyCurrentMonth(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "user-1", time.February, 2024, testTxns(t, 1)); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	tests := []struct {
		name  string
		month time.Month
		year  int
	}{
		{"previous month", time.February, 2024},
		{"next month", time.April, 2024},
		{"same month previous year", time.March, 2023},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Undo(ctx, "user-1", tt.month, tt.year); !errors.Is(err, domain.ErrUndoWindowClosed) {
				t.Errorf("Undo(%v %d) error = %v, want ErrUndoWindowClosed", tt.month, tt.year, err)
			}
		})
	}

	if len(store.approvals) != 1 {
		t.Error("rejected undo must not touch the stored approval")
	}
}

func TestUndoWithoutApproval(t *testing.T) {
	svc := newTestService(newFakeStore(), march15)
	_, err := svc.Undo(context.Background(), "user-1", time.March, 2024)
	if !errors.Is(err, domain.ErrApprovalNotFound) {
		t.Errorf("Undo() error = %v, want ErrApprovalNotFound", err)
	}
}

func TestUndoIsIdempotentInEffect(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, march15)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "user-1", time.March, 2024, testTxns(t, 1)); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if _, err := svc.Undo(ctx, "user-1", time.March, 2024); err != nil {
		t.Fatalf("first Undo() error = %v", err)
	}
	if _, err := svc.Undo(ctx, "user-1", time.March, 2024); !errors.Is(err, domain.ErrApprovalNotFound) {
		t.Errorf("second Undo() error = %v, want ErrApprovalNotFound", err)
	}
}
