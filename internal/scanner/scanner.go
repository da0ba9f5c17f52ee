// Package scanner finds Revolut statement exports under a directory tree.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Scanner walks a directory tree and finds statement files.
type Scanner struct {
	rootDir string
}

// New creates a scanner for the given root directory.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Result is one found statement file. Month and Year are zero when no
// period could be read off the path.
type Result struct {
	Path  string
	Month time.Month
	Year  int
}

// Scan walks the tree and returns every CSV statement found, with the
// import period extracted from the path where possible.
func (s *Scanner) Scan() ([]Result, error) {
	rootDir := expandHome(s.rootDir)

	var results []Result
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".csv" {
			return nil
		}

		result := Result{Path: path}
		result.Month, result.Year = extractPeriod(rootDir, path)
		results = append(results, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return results, nil
}

// extractPeriod looks for a YYYY-MM component in the file's relative path,
// checking the filename first and then the parent directories.
// Layout convention: {root}/{YYYY-MM}/statement.csv or
// {root}/statement-YYYY-MM.csv.
func extractPeriod(rootDir, filePath string) (time.Month, int) {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		relPath = filePath
	}

	base := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	candidates := []string{base}
	if idx := strings.LastIndexByte(base, '-'); idx >= 7 {
		// Trailing YYYY-MM in a longer filename, e.g. statement-2024-03.
		candidates = append(candidates, base[idx-4:])
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(relPath)), "/") {
		candidates = append(candidates, part)
	}

	for _, c := range candidates {
		if month, year, ok := parsePeriod(c); ok {
			return month, year
		}
	}
	return 0, 0
}

func parsePeriod(s string) (time.Month, int, bool) {
	if len(s) != 7 || s[4] != '-' {
		return 0, 0, false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return time.Month(month), year, true
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
