// Package dedup collapses semantically-identical transactions via SHA256
// fingerprinting.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/marcosogg/budgetflow/internal/domain"
)

// Key creates the composite deduplication key for a transaction:
// SHA256("{isoDate}|{amount}|{normalizedDescription}").
// Amount is formatted with 2 decimal places for consistency.
// Description is normalized: lowercase and trimmed.
// Two transactions with an identical key are the same economic event.
func Key(t domain.Transaction) string {
	normalizedDesc := strings.ToLower(strings.TrimSpace(t.Description))
	input := fmt.Sprintf("%s|%s|%s", t.ISODate(), t.Amount.StringFixed(2), normalizedDesc)

	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Dedupe collapses duplicate transactions, keeping the first occurrence per
// key and preserving input order. Idempotent: deduping an already-deduped
// list is a no-op.
func Dedupe(txns []domain.Transaction) []domain.Transaction {
	seen := make(map[string]bool, len(txns))
	result := make([]domain.Transaction, 0, len(txns))

	for _, t := range txns {
		k := Key(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, t)
	}
	return result
}
