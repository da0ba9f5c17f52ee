package monthspan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcosogg/budgetflow/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartAndNextStart(t *testing.T) {
	if got := Start(time.March, 2024); !got.Equal(date(2024, 3, 1)) {
		t.Errorf("Start() = %v", got)
	}
	if got := NextStart(time.March, 2024); !got.Equal(date(2024, 4, 1)) {
		t.Errorf("NextStart() = %v", got)
	}
	// Year rollover
	if got := NextStart(time.December, 2024); !got.Equal(date(2025, 1, 1)) {
		t.Errorf("NextStart(December) = %v", got)
	}
}

func TestInImportWindow_HalfOpen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"first day", date(2024, 3, 1), true},
		{"mid month", date(2024, 3, 15), true},
		{"last day", date(2024, 3, 31), true},
		{"last instant before next month", NextStart(time.March, 2024).Add(-time.Second), true},
		{"next month start excluded", date(2024, 4, 1), false},
		{"previous month", date(2024, 2, 29), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InImportWindow(tt.t, time.March, 2024); got != tt.want {
				t.Errorf("InImportWindow(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestScope_ClosedInterval(t *testing.T) {
	txns := []domain.Transaction{
		{ID: "before", Date: date(2024, 2, 29), Amount: decimal.NewFromInt(1)},
		{ID: "first", Date: date(2024, 3, 1), Amount: decimal.NewFromInt(1)},
		{ID: "mid", Date: date(2024, 3, 15), Amount: decimal.NewFromInt(1)},
		{ID: "last", Date: date(2024, 3, 31), Amount: decimal.NewFromInt(1)},
		{ID: "after", Date: date(2024, 4, 1), Amount: decimal.NewFromInt(1)},
	}

	scoped := Scope(txns, time.March, 2024)
	if len(scoped) != 3 {
		t.Fatalf("Scope() returned %d transactions, want 3", len(scoped))
	}

	want := []string{"first", "mid", "last"}
	for i, id := range want {
		if scoped[i].ID != id {
			t.Errorf("scoped[%d].ID = %s, want %s (order must be preserved)", i, scoped[i].ID, id)
		}
	}
}

func TestScope_Empty(t *testing.T) {
	if got := Scope(nil, time.March, 2024); len(got) != 0 {
		t.Errorf("Scope(nil) returned %d transactions, want 0", len(got))
	}
}
