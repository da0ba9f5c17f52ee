// Package reconcile recomputes budget spent totals from approved
// transactions.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marcosogg/budgetflow/internal/category"
	"github.com/marcosogg/budgetflow/internal/domain"
)

// Reconcile returns a copy of the budget whose spent fields are recomputed
// from the given transactions. Every spent field is zeroed first, so the
// result reflects only the transactions passed in: running it twice over
// the same input yields the same budget.
//
// Transactions whose category has no mapping accumulate into the
// uncategorized bucket. Amounts are summed as absolute values, so the total
// spent always equals the sum of the transaction magnitudes.
func Reconcile(budget *domain.Budget, txns []domain.Transaction, table *category.Table) (*domain.Budget, error) {
	if budget == nil {
		return nil, fmt.Errorf("budget cannot be nil")
	}
	if table == nil {
		return nil, fmt.Errorf("mapping table cannot be nil")
	}

	out := *budget
	out.Spent.Reset()
	out.UncategorizedSpent = decimal.Zero

	for _, txn := range txns {
		amount := txn.Amount.Abs()

		mapping, ok := table.ByDisplayName(txn.Category)
		if !ok {
			out.UncategorizedSpent = out.UncategorizedSpent.Add(amount)
			continue
		}

		field, ok := out.Spent.Field(mapping.BudgetField)
		if !ok {
			return nil, fmt.Errorf("mapping %q references unknown budget field %q", mapping.Key, mapping.BudgetField)
		}
		*field = field.Add(amount)
	}

	return &out, nil
}
