// Package monthspan provides calendar-month interval helpers for transaction
// filtering.
//
// Two interval conventions coexist deliberately. The import pre-filter uses a
// half-open window [start, nextStart); the general scoping filter uses a
// closed interval [start, end]. Call sites rely on the specific boundary
// behavior of each, so they are not unified.
package monthspan

import (
	"time"

	"github.com/marcosogg/budgetflow/internal/domain"
)

// Start returns midnight UTC on the first day of the month.
func Start(month time.Month, year int) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// NextStart returns midnight UTC on the first day of the following month.
func NextStart(month time.Month, year int) time.Time {
	return Start(month, year).AddDate(0, 1, 0)
}

// End returns the last instant of the month (23:59:59.999999999 on the last
// day), for the closed-interval convention.
func End(month time.Month, year int) time.Time {
	return NextStart(month, year).Add(-time.Nanosecond)
}

// InImportWindow reports whether t falls in the half-open window
// [Start, NextStart). The CSV parser uses this to scope rows to the target
// month before classification.
func InImportWindow(t time.Time, month time.Month, year int) bool {
	start := Start(month, year)
	return !t.Before(start) && t.Before(NextStart(month, year))
}

// Scope filters transactions to the closed interval [Start, End], inclusive
// on both ends. This is the general "view transactions for month X" filter
// used outside import, e.g. when recomputing reconciliation from stored
// transactions. Order-preserving.
func Scope(txns []domain.Transaction, month time.Month, year int) []domain.Transaction {
	start := Start(month, year)
	end := End(month, year)

	scoped := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		scoped = append(scoped, t)
	}
	return scoped
}
