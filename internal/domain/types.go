// Package domain holds the core types shared across the import and
// reconciliation pipeline.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the category assigned to transactions no mapping matched.
// Reconciliation routes it into the budget's uncategorized spent bucket.
const Uncategorized = "Uncategorized"

// BudgetFields lists the budget accumulator fields in their canonical order.
// Each entry corresponds to one planned column and one spent column on the
// budgets table, and to the budget_field key in the category mappings file.
var BudgetFields = []string{
	"rent",
	"utilities",
	"groceries",
	"transport",
	"dining_out",
	"health",
	"entertainment",
	"shopping",
	"subscriptions",
}

// Transaction is a parsed, classified, sign-adjusted spending event derived
// from one statement row. Amount is positive for spend: the parser negates
// the bank's debit convention before constructing one of these.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	// OriginalCategory preserves the source file's own transaction type
	// (e.g. CARD_PAYMENT) for review; classification never reads it back.
	OriginalCategory  string `json:"originalCategory"`
	MonthlyApprovalID string `json:"monthlyApprovalId,omitempty"`
}

// NewTransaction creates a validated transaction.
func NewTransaction(id, userID string, date time.Time, description string, amount decimal.Decimal, category string) (*Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("transaction ID cannot be empty")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	if category == "" {
		return nil, fmt.Errorf("category cannot be empty")
	}

	return &Transaction{
		ID:          id,
		UserID:      userID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Currency:    "EUR",
		Category:    category,
	}, nil
}

// ISODate returns the transaction date formatted as YYYY-MM-DD.
func (t *Transaction) ISODate() string {
	return t.Date.Format("2006-01-02")
}

// CategoryAmounts holds one amount per budget category. The same struct
// serves the planned side and the spent side of a budget.
type CategoryAmounts struct {
	Rent          decimal.Decimal `json:"rent"`
	Utilities     decimal.Decimal `json:"utilities"`
	Groceries     decimal.Decimal `json:"groceries"`
	Transport     decimal.Decimal `json:"transport"`
	DiningOut     decimal.Decimal `json:"diningOut"`
	Health        decimal.Decimal `json:"health"`
	Entertainment decimal.Decimal `json:"entertainment"`
	Shopping      decimal.Decimal `json:"shopping"`
	Subscriptions decimal.Decimal `json:"subscriptions"`
}

// Field returns a pointer to the amount for the given budget field name.
func (a *CategoryAmounts) Field(name string) (*decimal.Decimal, bool) {
	switch name {
	case "rent":
		return &a.Rent, true
	case "utilities":
		return &a.Utilities, true
	case "groceries":
		return &a.Groceries, true
	case "transport":
		return &a.Transport, true
	case "dining_out":
		return &a.DiningOut, true
	case "health":
		return &a.Health, true
	case "entertainment":
		return &a.Entertainment, true
	case "shopping":
		return &a.Shopping, true
	case "subscriptions":
		return &a.Subscriptions, true
	}
	return nil, false
}

// Reset zeroes every field.
func (a *CategoryAmounts) Reset() {
	*a = CategoryAmounts{}
}

// Total returns the sum of every field.
func (a *CategoryAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, name := range BudgetFields {
		v, _ := a.Field(name)
		total = total.Add(*v)
	}
	return total
}

// Budget is the planned/spent snapshot for one user's calendar month.
// There is at most one budget per (user, month, year); the store enforces
// the constraint.
type Budget struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	Month  time.Month `json:"month"`
	Year   int        `json:"year"`

	Salary decimal.Decimal `json:"salary"`
	Bonus  decimal.Decimal `json:"bonus"`

	Planned CategoryAmounts `json:"planned"`
	Spent   CategoryAmounts `json:"spent"`
	// UncategorizedSpent accumulates spend whose category has no mapping,
	// including the literal Uncategorized category.
	UncategorizedSpent decimal.Decimal `json:"uncategorizedSpent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBudget creates a validated budget snapshot with zeroed amounts.
func NewBudget(id, userID string, month time.Month, year int) (*Budget, error) {
	if id == "" {
		return nil, fmt.Errorf("budget ID cannot be empty")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	return &Budget{
		ID:     id,
		UserID: userID,
		Month:  month,
		Year:   year,
	}, nil
}

// TotalSpent returns the sum of every spent field including the
// uncategorized bucket.
func (b *Budget) TotalSpent() decimal.Decimal {
	return b.Spent.Total().Add(b.UncategorizedSpent)
}

// BillReminder is one recurring bill with an optional SMS notification.
// DueDate is a day of month, 1 through 31.
type BillReminder struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	ProviderName     string          `json:"providerName"`
	DueDate          int             `json:"dueDate"`
	Amount           decimal.Decimal `json:"amount"`
	Category         string          `json:"category"`
	Notes            string          `json:"notes"`
	PhoneNumber      string          `json:"phoneNumber"`
	RemindersEnabled bool            `json:"remindersEnabled"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Validate checks the reminder's invariants.
func (r *BillReminder) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if r.ProviderName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if r.DueDate < 1 || r.DueDate > 31 {
		return fmt.Errorf("due date must be in [1,31], got %d", r.DueDate)
	}
	if r.RemindersEnabled && r.PhoneNumber == "" {
		return fmt.Errorf("phone number is required when reminders are enabled")
	}
	return nil
}

// MonthlyApproval binds an imported transaction batch to one period.
// The approval owns its transactions: they must be deleted before the
// approval row itself.
type MonthlyApproval struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Month      time.Month `json:"month"`
	Year       int        `json:"year"`
	CreatedAt  time.Time  `json:"createdAt"`
	ApprovedAt time.Time  `json:"approvedAt"`
}

// ValidatePeriod checks a (month, year) pair.
func ValidatePeriod(month time.Month, year int) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("month must be in [1,12], got %d", int(month))
	}
	if year < 2000 || year > 2100 {
		return fmt.Errorf("year must be in [2000,2100], got %d", year)
	}
	return nil
}

// FormatPeriod renders a (month, year) pair for error messages, e.g. "2024-03".
func FormatPeriod(month time.Month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
