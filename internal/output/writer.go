// Package output serializes import previews and budgets to JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/revolut"
)

// WriteResult serializes an import result to w with 2-space indentation.
func WriteResult(result *revolut.ImportResult, w io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	return writeIndented(result, w)
}

// WriteResultToFile writes an import result to a file, or stdout when path
// is empty. File writes go through a temp file and rename so a crash never
// leaves a half-written export behind.
func WriteResultToFile(result *revolut.ImportResult, path string) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if path == "" {
		return WriteResult(result, os.Stdout)
	}
	return writeFileAtomic(result, path)
}

// WriteBudget serializes a budget snapshot to w with 2-space indentation.
func WriteBudget(budget *domain.Budget, w io.Writer) error {
	if budget == nil {
		return fmt.Errorf("budget cannot be nil")
	}
	return writeIndented(budget, w)
}

func writeIndented(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeFileAtomic(v any, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeIndented(v, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
