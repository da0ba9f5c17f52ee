package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosogg/budgetflow/internal/approval"
	"github.com/marcosogg/budgetflow/internal/config"
	"github.com/marcosogg/budgetflow/internal/store"
	"github.com/marcosogg/budgetflow/internal/ui"
)

func newUndoCommand() *cobra.Command {
	var (
		month  int
		year   int
		userID string
	)

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Remove the approved import for the current month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := approval.NewService(st)
			deleted, err := svc.Undo(cmd.Context(), userID, time.Month(month), year)
			if err != nil {
				return err
			}
			ui.Success("Removed %d transactions for %04d-%02d", deleted, year, month)
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", int(time.Now().Month()), "target month (1-12)")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "target year")
	cmd.Flags().StringVar(&userID, "user", "local", "user the approval belongs to")

	return cmd
}
