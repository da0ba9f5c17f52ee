package commands

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marcosogg/budgetflow/internal/config"
	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/reconcile"
	"github.com/marcosogg/budgetflow/internal/store"
	"github.com/marcosogg/budgetflow/internal/ui"
)

func newReconcileCommand() *cobra.Command {
	var (
		month  int
		year   int
		userID string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute a month's spent totals from its approved transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			table, err := loadTable(cfg)
			if err != nil {
				return err
			}

			budget, err := st.GetBudget(cmd.Context(), userID, time.Month(month), year)
			if errors.Is(err, domain.ErrNotFound) {
				ui.Warning("No budget for %04d-%02d yet, starting an empty one", year, month)
				budget, err = domain.NewBudget(uuid.NewString(), userID, time.Month(month), year)
			}
			if err != nil {
				return err
			}

			txns, err := st.ListTransactions(cmd.Context(), userID, time.Month(month), year)
			if err != nil {
				return err
			}

			updated, err := reconcile.Reconcile(budget, txns, table)
			if err != nil {
				return err
			}
			if err := st.UpsertBudget(cmd.Context(), updated); err != nil {
				return err
			}

			ui.Success("Reconciled %d transactions for %04d-%02d", len(txns), year, month)
			ui.Info("Total spent: %s (uncategorized: %s)",
				updated.TotalSpent().StringFixed(2), updated.UncategorizedSpent.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", int(time.Now().Month()), "target month (1-12)")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "target year")
	cmd.Flags().StringVar(&userID, "user", "local", "user the budget belongs to")

	return cmd
}
