package domain

import "errors"

// Sentinel errors for the approval lifecycle and the store. Callers check
// these with errors.Is; the wrapped message carries the period context.
var (
	// ErrNotFound is returned by store lookups with no matching row.
	ErrNotFound = errors.New("not found")

	// ErrApprovalExists signals a second approval attempt for a period
	// that already has one. The caller must undo the existing approval
	// before approving again.
	ErrApprovalExists = errors.New("approval already exists for this period")

	// ErrApprovalNotFound signals an undo with no approval to undo.
	// Distinct from ErrApprovalExists: undo never silently succeeds.
	ErrApprovalNotFound = errors.New("no approval exists for this period")

	// ErrUndoWindowClosed signals an undo attempt on a past period.
	// Undo is restricted to the current calendar month to guard against
	// erasing historical reconciled data.
	ErrUndoWindowClosed = errors.New("undo is limited to the current month")
)
