package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosogg/budgetflow/internal/domain"
)

// Every vendor substring in the shipped table must resolve to exactly one
// mapping, and classification must agree with a direct lookup. A vendor
// that appears under two mappings would make classification depend on
// table order in a way the mappings file does not document.
func TestShippedTableSingleMappingProperty(t *testing.T) {
	table, err := LoadEmbedded()
	require.NoError(t, err)

	seen := make(map[string]string)
	for _, m := range table.Mappings() {
		assert.Contains(t, domain.BudgetFields, m.BudgetField,
			"mapping %q references an unknown budget field", m.Key)

		for _, vendor := range m.Vendors {
			owner, dup := seen[vendor]
			assert.False(t, dup, "vendor %q appears under both %q and %q", vendor, owner, m.Key)
			seen[vendor] = m.Key

			match := table.Classify(vendor)
			assert.Equal(t, m.DisplayName, match.Category,
				"vendor %q classifies as %q, not its own mapping", vendor, match.Category)
		}
	}
	assert.NotEmpty(t, seen)
}

func TestShippedTableCoversEveryBudgetField(t *testing.T) {
	table, err := LoadEmbedded()
	require.NoError(t, err)

	covered := make(map[string]bool)
	for _, m := range table.Mappings() {
		covered[m.BudgetField] = true
	}
	for _, field := range domain.BudgetFields {
		assert.True(t, covered[field], "no mapping feeds budget field %q", field)
	}
}
