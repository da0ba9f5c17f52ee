// Package commands implements the budgetflow CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosogg/budgetflow/internal/category"
	"github.com/marcosogg/budgetflow/internal/config"
)

const version = "0.1.0"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "budgetflow",
		Short:   "Personal budget tracking with Revolut statement imports",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newImportCommand(),
		newApproveCommand(),
		newUndoCommand(),
		newReconcileCommand(),
		newServeCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("budgetflow version %s\n", version)
		},
	}
}

// loadTable returns the category mapping table, honoring a configured
// override file.
func loadTable(cfg *config.Config) (*category.Table, error) {
	if cfg.MappingsPath != "" {
		return category.LoadFromFile(cfg.MappingsPath)
	}
	return category.LoadEmbedded()
}
