package revolut

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FailedBatch captures the rows of one import that failed validation,
// together with the errors that rejected them, so the import can be
// corrected and retried later.
type FailedBatch struct {
	Filename  string     `json:"filename"`
	Timestamp time.Time  `json:"timestamp"`
	Errors    []string   `json:"errors"`
	Rows      [][]string `json:"rows"`
}

// FailureSink records failed import batches.
type FailureSink interface {
	Record(ctx context.Context, batch FailedBatch) error
}

// FileFailureLog appends failed batches to a JSON-lines file, one batch per
// line.
type FileFailureLog struct {
	path string
}

// NewFileFailureLog creates a failure log at the given path. Parent
// directories are created on first write.
func NewFileFailureLog(path string) (*FileFailureLog, error) {
	if path == "" {
		return nil, fmt.Errorf("failure log path cannot be empty")
	}
	return &FileFailureLog{path: path}, nil
}

// Record appends one batch to the log file.
func (l *FileFailureLog) Record(ctx context.Context, batch FailedBatch) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create failure log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open failure log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(batch); err != nil {
		return fmt.Errorf("failed to write failure log entry: %w", err)
	}
	return nil
}
