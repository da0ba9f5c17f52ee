package category

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/marcosogg/budgetflow/internal/domain"
)

// AmountTransform converts a bank-reported signed amount into the
// normalized spend amount. The second return value is a human-readable
// warning, or "" when no adjustment fired.
type AmountTransform func(amount decimal.Decimal) (decimal.Decimal, string)

// Match is the result of classifying one transaction description.
type Match struct {
	Category    string
	BudgetField string
	Transform   AmountTransform
}

// DefaultTransform negates the bank's sign convention: a debit of -42.50
// becomes a spend of 42.50. Every non-special-cased vendor uses this.
func DefaultTransform(amount decimal.Decimal) (decimal.Decimal, string) {
	return amount.Neg(), ""
}

// sharedRentTotal and sharedRentShare drive the rent-splitting adjustment:
// the letting agent collects the full rent from one flatmate's account, so
// a debit of the full amount is recorded as the payer's share only.
var (
	sharedRentTotal = decimal.NewFromInt(2600)
	sharedRentShare = decimal.NewFromInt(1300)
)

func splitSharedRent(amount decimal.Decimal) (decimal.Decimal, string) {
	spend := amount.Neg()
	if !spend.Equal(sharedRentTotal) {
		return spend, ""
	}
	warning := fmt.Sprintf("Adjusted shared rent payment of €%s to individual share €%s",
		sharedRentTotal.StringFixed(2), sharedRentShare.StringFixed(2))
	return sharedRentShare, warning
}

// specialCase is one hand-curated vendor with a bespoke amount transform.
// Checked before the mapping table; new cases are added here, not inlined
// in the classifier.
type specialCase struct {
	vendor      string
	category    string
	budgetField string
	transform   AmountTransform
}

var specialCases = []specialCase{
	{vendor: "sherry fitzgerald", category: "Rent", budgetField: "rent", transform: splitSharedRent},
}

// Normalize prepares a description for matching: trim, lowercase, and
// strip diacritics so "Café Nero" matches a "cafe nero" vendor entry.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// Classify finds the best category for a transaction description.
// Special-case vendors are checked first, then the mapping table in its
// defined order. Unmatched descriptions classify as Uncategorized with the
// default sign-negating transform. Pure function over the table.
func (t *Table) Classify(description string) Match {
	normalized := Normalize(description)

	for _, sc := range specialCases {
		if strings.Contains(normalized, sc.vendor) {
			return Match{Category: sc.category, BudgetField: sc.budgetField, Transform: sc.transform}
		}
	}

	if m, ok := t.Lookup(normalized); ok {
		return Match{Category: m.DisplayName, BudgetField: m.BudgetField, Transform: DefaultTransform}
	}

	return Match{Category: domain.Uncategorized, Transform: DefaultTransform}
}
