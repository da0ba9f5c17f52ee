package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosogg/budgetflow/internal/approval"
	"github.com/marcosogg/budgetflow/internal/config"
	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/output"
	"github.com/marcosogg/budgetflow/internal/revolut"
	"github.com/marcosogg/budgetflow/internal/scanner"
	"github.com/marcosogg/budgetflow/internal/store"
	"github.com/marcosogg/budgetflow/internal/ui"
)

// importOptions are the shared flags of import and approve.
type importOptions struct {
	file    string
	dir     string
	month   int
	year    int
	userID  string
	outFile string
}

func addImportFlags(cmd *cobra.Command, opts *importOptions) {
	cmd.Flags().StringVar(&opts.file, "file", "", "Revolut CSV statement")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory of statements to import in one pass")
	cmd.Flags().IntVar(&opts.month, "month", int(time.Now().Month()), "target month (1-12)")
	cmd.Flags().IntVar(&opts.year, "year", time.Now().Year(), "target year")
	cmd.Flags().StringVar(&opts.userID, "user", "local", "user the import belongs to")
	cmd.Flags().StringVar(&opts.outFile, "output", "", "write the import preview JSON to a file")
}

func newImportCommand() *cobra.Command {
	var opts importOptions
	var approve bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse Revolut statements and preview the import",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, approve)
		},
	}
	addImportFlags(cmd, &opts)
	cmd.Flags().BoolVar(&approve, "approve", false, "persist the batch after parsing")

	return cmd
}

func newApproveCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Parse Revolut statements and persist the batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, true)
		},
	}
	addImportFlags(cmd, &opts)

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions, approve bool) error {
	if (opts.file == "") == (opts.dir == "") {
		return fmt.Errorf("exactly one of --file or --dir is required")
	}

	cfg := config.Load()
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	sink, err := revolut.NewFileFailureLog(cfg.FailureLogPath)
	if err != nil {
		return err
	}
	parser := revolut.NewParser(table, sink)

	files := []scanner.Result{{Path: opts.file, Month: time.Month(opts.month), Year: opts.year}}
	if opts.dir != "" {
		files, err = scanner.New(opts.dir).Scan()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no CSV statements found under %s", opts.dir)
		}
	}

	ui.Header("Revolut Statement Import")

	result := &revolut.ImportResult{
		Transactions:       []domain.Transaction{},
		Errors:             []string{},
		Warnings:           []string{},
		UnmappedCategories: []string{},
	}
	for i, f := range files {
		ui.Step(i+1, len(files), fmt.Sprintf("Parsing %s", f.Path))

		// Files without a period in their path fall back to the flags.
		month, year := f.Month, f.Year
		if month == 0 {
			month, year = time.Month(opts.month), opts.year
		}

		fileResult, err := parseStatement(cmd.Context(), parser, f.Path, opts.userID, month, year)
		if err != nil {
			return err
		}
		result.Transactions = append(result.Transactions, fileResult.Transactions...)
		result.Errors = append(result.Errors, fileResult.Errors...)
		result.Warnings = append(result.Warnings, fileResult.Warnings...)
		result.UnmappedCategories = append(result.UnmappedCategories, fileResult.UnmappedCategories...)
	}

	printImportResult(result)

	if opts.outFile != "" {
		if err := output.WriteResultToFile(result, opts.outFile); err != nil {
			return err
		}
		ui.Info("Preview written to %s", opts.outFile)
	}

	if !approve {
		ui.Info("Preview only; re-run with --approve to persist")
		return nil
	}
	if len(result.Transactions) == 0 {
		return fmt.Errorf("nothing to approve: the statements produced no transactions")
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := approval.NewService(st)
	approvalRow, err := svc.Approve(cmd.Context(), opts.userID, time.Month(opts.month), opts.year, result.Transactions)
	if err != nil {
		return err
	}
	ui.Success("Approved %d transactions for %04d-%02d (approval %s)",
		len(result.Transactions), opts.year, opts.month, approvalRow.ID)
	return nil
}

func parseStatement(ctx context.Context, parser *revolut.Parser, path, userID string, month time.Month, year int) (*revolut.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	return parser.Parse(ctx, f, revolut.ParseOptions{
		Filename: filepath.Base(path),
		UserID:   userID,
		Month:    month,
		Year:     year,
	})
}

func printImportResult(result *revolut.ImportResult) {
	ui.Success("%d transactions parsed", len(result.Transactions))
	for _, w := range result.Warnings {
		ui.Warning("%s", w)
	}
	for _, e := range result.Errors {
		ui.Error("%s", e)
	}
	if len(result.UnmappedCategories) > 0 {
		ui.Warning("%d vendors have no category mapping:", len(result.UnmappedCategories))
		for _, desc := range result.UnmappedCategories {
			ui.Info("- %s", desc)
		}
	}
}
