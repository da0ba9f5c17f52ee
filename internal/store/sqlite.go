// Package store persists budgets, reminders, transactions and approvals in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/monthspan"
)

// Store is a SQLite-backed persistence layer. All amounts are stored as
// decimal strings; the UNIQUE(user_id, month, year) constraint on
// monthly_approvals is the concurrency guard for the approval lifecycle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for an in-process throwaway database.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids table-lock errors under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS budgets (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	salary TEXT NOT NULL DEFAULT '0',
	bonus TEXT NOT NULL DEFAULT '0',
	%s,
	%s,
	uncategorized_spent TEXT NOT NULL DEFAULT '0',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, month, year)
);

CREATE TABLE IF NOT EXISTS bill_reminders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	due_date INTEGER NOT NULL CHECK (due_date BETWEEN 1 AND 31),
	amount TEXT NOT NULL DEFAULT '0',
	category TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT '',
	reminders_enabled INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_approvals (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	approved_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, month, year)
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TIMESTAMP NOT NULL,
	description TEXT NOT NULL,
	amount TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'EUR',
	category TEXT NOT NULL,
	original_category TEXT NOT NULL DEFAULT '',
	monthly_approval_id TEXT REFERENCES monthly_approvals(id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_approval ON transactions(monthly_approval_id);
`, amountColumnDefs("planned_"), amountColumnDefs("spent_"))

func amountColumnDefs(prefix string) string {
	defs := make([]string, len(domain.BudgetFields))
	for i, field := range domain.BudgetFields {
		defs[i] = fmt.Sprintf("%s%s TEXT NOT NULL DEFAULT '0'", prefix, field)
	}
	return strings.Join(defs, ",\n\t")
}

func amountColumns(prefix string) []string {
	cols := make([]string, len(domain.BudgetFields))
	for i, field := range domain.BudgetFields {
		cols[i] = prefix + field
	}
	return cols
}

// budgetColumns is the full column list for budgets, in insert/scan order.
var budgetColumns = func() []string {
	cols := []string{"id", "user_id", "month", "year", "salary", "bonus"}
	cols = append(cols, amountColumns("planned_")...)
	cols = append(cols, amountColumns("spent_")...)
	return append(cols, "uncategorized_spent", "created_at", "updated_at")
}()

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// budgetArgs flattens a budget into values matching budgetColumns.
func budgetArgs(b *domain.Budget) []any {
	args := []any{b.ID, b.UserID, int(b.Month), b.Year, b.Salary.String(), b.Bonus.String()}
	for _, field := range domain.BudgetFields {
		v, _ := b.Planned.Field(field)
		args = append(args, v.String())
	}
	for _, field := range domain.BudgetFields {
		v, _ := b.Spent.Field(field)
		args = append(args, v.String())
	}
	return append(args, b.UncategorizedSpent.String(), b.CreatedAt.UTC(), b.UpdatedAt.UTC())
}

func scanBudget(row interface{ Scan(...any) error }) (*domain.Budget, error) {
	var (
		b             domain.Budget
		month         int
		salary, bonus string
		uncategorized string
		planned       = make([]string, len(domain.BudgetFields))
		spent         = make([]string, len(domain.BudgetFields))
	)

	dest := []any{&b.ID, &b.UserID, &month, &b.Year, &salary, &bonus}
	for i := range planned {
		dest = append(dest, &planned[i])
	}
	for i := range spent {
		dest = append(dest, &spent[i])
	}
	dest = append(dest, &uncategorized, &b.CreatedAt, &b.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	b.Month = time.Month(month)
	var err error
	if b.Salary, err = decimal.NewFromString(salary); err != nil {
		return nil, fmt.Errorf("invalid stored salary %q: %w", salary, err)
	}
	if b.Bonus, err = decimal.NewFromString(bonus); err != nil {
		return nil, fmt.Errorf("invalid stored bonus %q: %w", bonus, err)
	}
	if b.UncategorizedSpent, err = decimal.NewFromString(uncategorized); err != nil {
		return nil, fmt.Errorf("invalid stored uncategorized spent %q: %w", uncategorized, err)
	}
	for i, field := range domain.BudgetFields {
		p, _ := b.Planned.Field(field)
		if *p, err = decimal.NewFromString(planned[i]); err != nil {
			return nil, fmt.Errorf("invalid stored planned %s %q: %w", field, planned[i], err)
		}
		sp, _ := b.Spent.Field(field)
		if *sp, err = decimal.NewFromString(spent[i]); err != nil {
			return nil, fmt.Errorf("invalid stored spent %s %q: %w", field, spent[i], err)
		}
	}
	return &b, nil
}

// UpsertBudget inserts the budget or, when one already exists for the same
// (user, month, year), replaces its amounts in place keeping the original
// row ID and creation time.
func (s *Store) UpsertBudget(ctx context.Context, b *domain.Budget) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	var updates []string
	for _, col := range budgetColumns {
		switch col {
		case "id", "user_id", "month", "year", "created_at":
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query := fmt.Sprintf(
		"INSERT INTO budgets (%s) VALUES (%s) ON CONFLICT(user_id, month, year) DO UPDATE SET %s",
		strings.Join(budgetColumns, ", "),
		placeholders(len(budgetColumns)),
		strings.Join(updates, ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, budgetArgs(b)...); err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}

// GetBudget returns the budget for one user period, or domain.ErrNotFound.
func (s *Store) GetBudget(ctx context.Context, userID string, month time.Month, year int) (*domain.Budget, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM budgets WHERE user_id = ? AND month = ? AND year = ?",
		strings.Join(budgetColumns, ", "),
	)
	b, err := scanBudget(s.db.QueryRowContext(ctx, query, userID, int(month), year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget for %s: %w", domain.FormatPeriod(month, year), domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns all budgets for a user, most recent period first.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM budgets WHERE user_id = ? ORDER BY year DESC, month DESC",
		strings.Join(budgetColumns, ", "),
	)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

// CreateReminder stores a new bill reminder.
func (s *Store) CreateReminder(ctx context.Context, r *domain.BillReminder) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bill_reminders
			(id, user_id, provider_name, due_date, amount, category, notes, phone_number, reminders_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ProviderName, r.DueDate, r.Amount.String(), r.Category,
		r.Notes, r.PhoneNumber, r.RemindersEnabled, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// UpdateReminder replaces a reminder's mutable fields.
func (s *Store) UpdateReminder(ctx context.Context, r *domain.BillReminder) error {
	if err := r.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE bill_reminders
		SET provider_name = ?, due_date = ?, amount = ?, category = ?, notes = ?, phone_number = ?, reminders_enabled = ?
		WHERE id = ? AND user_id = ?`,
		r.ProviderName, r.DueDate, r.Amount.String(), r.Category, r.Notes,
		r.PhoneNumber, r.RemindersEnabled, r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	return requireAffected(res, "reminder")
}

// DeleteReminder removes a reminder owned by the user.
func (s *Store) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM bill_reminders WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return requireAffected(res, "reminder")
}

// ListReminders returns a user's reminders ordered by due day.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]domain.BillReminder, error) {
	return s.queryReminders(ctx,
		"SELECT id, user_id, provider_name, due_date, amount, category, notes, phone_number, reminders_enabled, created_at FROM bill_reminders WHERE user_id = ? ORDER BY due_date",
		userID)
}

// ListDueReminders returns every enabled reminder across all users due on
// the given day of month.
func (s *Store) ListDueReminders(ctx context.Context, dueDate int) ([]domain.BillReminder, error) {
	return s.queryReminders(ctx,
		"SELECT id, user_id, provider_name, due_date, amount, category, notes, phone_number, reminders_enabled, created_at FROM bill_reminders WHERE reminders_enabled = 1 AND due_date = ? ORDER BY user_id",
		dueDate)
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]domain.BillReminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []domain.BillReminder
	for rows.Next() {
		var (
			r      domain.BillReminder
			amount string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProviderName, &r.DueDate, &amount,
			&r.Category, &r.Notes, &r.PhoneNumber, &r.RemindersEnabled, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored reminder amount %q: %w", amount, err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// CreateApproval inserts an approval row. A second approval for the same
// (user, month, year) returns domain.ErrApprovalExists.
func (s *Store) CreateApproval(ctx context.Context, a *domain.MonthlyApproval) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO monthly_approvals (id, user_id, month, year, created_at, approved_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, int(a.Month), a.Year, a.CreatedAt.UTC(), a.ApprovedAt.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("approval for %s: %w", domain.FormatPeriod(a.Month, a.Year), domain.ErrApprovalExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	return nil
}

// GetApproval returns the approval for one user period, or domain.ErrNotFound.
func (s *Store) GetApproval(ctx context.Context, userID string, month time.Month, year int) (*domain.MonthlyApproval, error) {
	var (
		a  domain.MonthlyApproval
		mo int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, month, year, created_at, approved_at FROM monthly_approvals WHERE user_id = ? AND month = ? AND year = ?",
		userID, int(month), year).
		Scan(&a.ID, &a.UserID, &mo, &a.Year, &a.CreatedAt, &a.ApprovedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("approval for %s: %w", domain.FormatPeriod(month, year), domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load approval: %w", err)
	}
	a.Month = time.Month(mo)
	return &a, nil
}

// DeleteApproval removes an approval row. Transactions referencing it must
// be deleted first or the foreign key rejects the delete.
func (s *Store) DeleteApproval(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM monthly_approvals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete approval: %w", err)
	}
	return requireAffected(res, "approval")
}

// InsertTransactions stores a batch atomically.
func (s *Store) InsertTransactions(ctx context.Context, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions
			(id, user_id, date, description, amount, currency, category, original_category, monthly_approval_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		var approvalID any
		if t.MonthlyApprovalID != "" {
			approvalID = t.MonthlyApprovalID
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.Date.UTC(), t.Description,
			t.Amount.String(), t.Currency, t.Category, t.OriginalCategory, approvalID); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// ListTransactions returns a user's transactions within the calendar month,
// ordered by date.
func (s *Store) ListTransactions(ctx context.Context, userID string, month time.Month, year int) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT id, user_id, date, description, amount, currency, category, original_category, monthly_approval_id FROM transactions WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date, id",
		userID, monthspan.Start(month, year), monthspan.NextStart(month, year))
}

// ListTransactionsByApproval returns the batch owned by one approval.
func (s *Store) ListTransactionsByApproval(ctx context.Context, approvalID string) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		"SELECT id, user_id, date, description, amount, currency, category, original_category, monthly_approval_id FROM transactions WHERE monthly_approval_id = ? ORDER BY date, id",
		approvalID)
}

// DeleteTransactionsByApproval removes the batch owned by one approval and
// reports how many rows went away.
func (s *Store) DeleteTransactionsByApproval(ctx context.Context, approvalID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE monthly_approval_id = ?", approvalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			t          domain.Transaction
			amount     string
			approvalID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Description, &amount,
			&t.Currency, &t.Category, &t.OriginalCategory, &approvalID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		t.MonthlyApprovalID = approvalID.String
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
