package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/revolut"
)

func sampleResult(t *testing.T) *revolut.ImportResult {
	t.Helper()
	txn, err := domain.NewTransaction("t1", "user-1",
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"TESCO DUBLIN (file: march.csv)", decimal.RequireFromString("45.20"), "Groceries")
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	return &revolut.ImportResult{
		Transactions:       []domain.Transaction{*txn},
		Errors:             []string{},
		Warnings:           []string{"row 3: adjusted"},
		UnmappedCategories: []string{},
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(sampleResult(t), &buf); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}

	if !strings.Contains(buf.String(), "  \"transactions\"") {
		t.Error("output should be indented JSON")
	}
	var decoded revolut.ImportResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Transactions) != 1 || decoded.Transactions[0].Category != "Groceries" {
		t.Errorf("decoded result = %+v, want the original transaction back", decoded)
	}
}

func TestWriteResultNil(t *testing.T) {
	if err := WriteResult(nil, &bytes.Buffer{}); err == nil {
		t.Error("WriteResult(nil) should return an error")
	}
}

func TestWriteResultToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.json")
	if err := WriteResultToFile(sampleResult(t), path); err != nil {
		t.Fatalf("WriteResultToFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var decoded revolut.ImportResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	// No stray temp files after a successful write.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries after write, want 1", len(entries))
	}
}

func TestWriteResultToFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	if err := WriteResultToFile(sampleResult(t), path); err != nil {
		t.Fatalf("WriteResultToFile() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "old") {
		t.Error("existing file content not replaced")
	}
}

func TestWriteBudget(t *testing.T) {
	budget, err := domain.NewBudget("b1", "user-1", time.March, 2024)
	if err != nil {
		t.Fatalf("NewBudget() error = %v", err)
	}
	budget.Spent.Groceries = decimal.RequireFromString("45.20")

	var buf bytes.Buffer
	if err := WriteBudget(budget, &buf); err != nil {
		t.Fatalf("WriteBudget() error = %v", err)
	}
	var decoded domain.Budget
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !decoded.Spent.Groceries.Equal(budget.Spent.Groceries) {
		t.Errorf("decoded groceries = %s, want %s", decoded.Spent.Groceries, budget.Spent.Groceries)
	}

	if err := WriteBudget(nil, &buf); err == nil {
		t.Error("WriteBudget(nil) should return an error")
	}
}
