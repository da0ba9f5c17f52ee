package category

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTable_ValidMappings(t *testing.T) {
	mappingsYAML := `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: groceries
    vendors:
      - tesco
      - lidl
`
	table, err := NewTable([]byte(mappingsYAML))
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if len(table.mappings) != 1 {
		t.Errorf("NewTable() mappings count = %d, want 1", len(table.mappings))
	}

	m := table.mappings[0]
	if m.Key != "groceries" {
		t.Errorf("m.Key = %s, want groceries", m.Key)
	}
	if m.DisplayName != "Groceries" {
		t.Errorf("m.DisplayName = %s, want Groceries", m.DisplayName)
	}
	if m.BudgetField != "groceries" {
		t.Errorf("m.BudgetField = %s, want groceries", m.BudgetField)
	}
}

func TestNewTable_InvalidMappings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty table", `mappings: []`},
		{"empty key", `
mappings:
  - key: ""
    display_name: Groceries
    budget_field: groceries
    vendors: [tesco]
`},
		{"duplicate key", `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: groceries
    vendors: [tesco]
  - key: groceries
    display_name: Groceries Again
    budget_field: groceries
    vendors: [lidl]
`},
		{"empty display name", `
mappings:
  - key: groceries
    display_name: ""
    budget_field: groceries
    vendors: [tesco]
`},
		{"unknown budget field", `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: no_such_field
    vendors: [tesco]
`},
		{"no vendors", `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: groceries
    vendors: []
`},
		{"blank vendor", `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: groceries
    vendors: ["  "]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable([]byte(tt.yaml)); err == nil {
				t.Errorf("NewTable() expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadEmbedded(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	if len(table.Mappings()) == 0 {
		t.Error("LoadEmbedded() returned empty table")
	}
}

func TestLookup_FirstMatchWins(t *testing.T) {
	mappingsYAML := `
mappings:
  - key: groceries
    display_name: Groceries
    budget_field: groceries
    vendors: [market]
  - key: shopping
    display_name: Shopping
    budget_field: shopping
    vendors: [market]
`
	table, err := NewTable([]byte(mappingsYAML))
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	m, ok := table.Lookup("ENGLISH MARKET CORK")
	if !ok {
		t.Fatal("Lookup() expected a match")
	}
	if m.DisplayName != "Groceries" {
		t.Errorf("Lookup() = %s, want Groceries (earlier mapping wins)", m.DisplayName)
	}
}

func TestLookup_CaseInsensitiveSubstring(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	tests := []struct {
		description string
		want        string
	}{
		{"TESCO DUBLIN", "Groceries"},
		{"tesco express rathmines", "Groceries"},
		{"Netflix.com", "Subscriptions"},
		{"FREE NOW *TRIP", "Transport"},
	}

	for _, tt := range tests {
		m, ok := table.Lookup(tt.description)
		if !ok {
			t.Errorf("Lookup(%q) expected a match", tt.description)
			continue
		}
		if m.DisplayName != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.description, m.DisplayName, tt.want)
		}
	}
}

func TestByDisplayName(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	m, ok := table.ByDisplayName("Groceries")
	if !ok {
		t.Fatal("ByDisplayName(Groceries) not found")
	}
	if m.BudgetField != "groceries" {
		t.Errorf("BudgetField = %s, want groceries", m.BudgetField)
	}

	if _, ok := table.ByDisplayName("No Such Category"); ok {
		t.Error("ByDisplayName() should not resolve unknown categories")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  TESCO DUBLIN  ", "tesco dublin"},
		{"Café Nero", "cafe nero"},
		{"Müller", "muller"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify_VendorMatch(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	match := table.Classify("TESCO DUBLIN")
	if match.Category != "Groceries" {
		t.Errorf("Classify(TESCO DUBLIN) = %s, want Groceries", match.Category)
	}

	amount, warning := match.Transform(decimal.NewFromFloat(-42.50))
	if !amount.Equal(decimal.NewFromFloat(42.50)) {
		t.Errorf("transform amount = %s, want 42.5", amount)
	}
	if warning != "" {
		t.Errorf("transform warning = %q, want empty", warning)
	}
}

func TestClassify_Uncategorized(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	match := table.Classify("UNKNOWN VENDOR XYZ")
	if match.Category != "Uncategorized" {
		t.Errorf("Classify(UNKNOWN VENDOR XYZ) = %s, want Uncategorized", match.Category)
	}

	amount, _ := match.Transform(decimal.NewFromFloat(-10))
	if !amount.Equal(decimal.NewFromFloat(10)) {
		t.Errorf("default transform amount = %s, want 10", amount)
	}
}

func TestClassify_SharedRentAdjustment(t *testing.T) {
	table, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	match := table.Classify("SHERRY FITZGERALD LETTINGS")
	if match.Category != "Rent" {
		t.Fatalf("Classify() = %s, want Rent", match.Category)
	}

	// Full shared payment reduces to the individual share with a warning.
	amount, warning := match.Transform(decimal.NewFromInt(-2600))
	if !amount.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("adjusted amount = %s, want 1300", amount)
	}
	if warning == "" {
		t.Error("expected a warning when the adjustment fires")
	}

	// Any other amount passes through with sign negated only.
	amount, warning = match.Transform(decimal.NewFromInt(-500))
	if !amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unadjusted amount = %s, want 500", amount)
	}
	if warning != "" {
		t.Errorf("warning = %q, want empty for non-matching amount", warning)
	}
}
