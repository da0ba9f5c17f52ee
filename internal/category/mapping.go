// Package category provides the vendor-to-category mapping table and the
// transaction classifier built on top of it.
package category

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcosogg/budgetflow/internal/domain"
)

//go:embed mappings.yaml
var embeddedMappings []byte

// Mapping is one entry of the category mapping table: a set of vendor
// substrings that resolve to a display category and the budget field its
// spend feeds.
//
// Lookup is first-match-wins in file order. A vendor substring should appear
// under only one mapping; the table does not enforce this, so ordering is
// the tie-breaker (see mappings.yaml).
type Mapping struct {
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"display_name"`
	BudgetField string   `yaml:"budget_field"`
	Vendors     []string `yaml:"vendors"`
}

// mappingFile is the top-level YAML structure.
type mappingFile struct {
	Mappings []Mapping `yaml:"mappings"`
}

// Table is the ordered category mapping table.
type Table struct {
	mappings []Mapping
	byName   map[string]*Mapping
}

// NewTable creates a mapping table from YAML data, validating every entry.
func NewTable(data []byte) (*Table, error) {
	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML mappings (check syntax, indentation, and field names): %w", err)
	}

	if len(file.Mappings) == 0 {
		return nil, fmt.Errorf("mapping table cannot be empty")
	}

	validFields := make(map[string]bool, len(domain.BudgetFields))
	for _, f := range domain.BudgetFields {
		validFields[f] = true
	}

	seenKeys := make(map[string]bool, len(file.Mappings))
	for i, m := range file.Mappings {
		if strings.TrimSpace(m.Key) == "" {
			return nil, fmt.Errorf("mapping %d: key cannot be empty", i)
		}
		if seenKeys[m.Key] {
			return nil, fmt.Errorf("mapping %d (%s): duplicate key", i, m.Key)
		}
		seenKeys[m.Key] = true

		if strings.TrimSpace(m.DisplayName) == "" {
			return nil, fmt.Errorf("mapping %d (%s): display_name cannot be empty", i, m.Key)
		}
		if !validFields[m.BudgetField] {
			return nil, fmt.Errorf("mapping %d (%s): invalid budget_field %q", i, m.Key, m.BudgetField)
		}
		if len(m.Vendors) == 0 {
			return nil, fmt.Errorf("mapping %d (%s): vendors cannot be empty", i, m.Key)
		}
		for j, v := range m.Vendors {
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("mapping %d (%s): vendor %d cannot be empty", i, m.Key, j)
			}
		}
	}

	byName := make(map[string]*Mapping, len(file.Mappings))
	mappings := make([]Mapping, len(file.Mappings))
	copy(mappings, file.Mappings)
	for i := range mappings {
		byName[mappings[i].DisplayName] = &mappings[i]
	}

	return &Table{mappings: mappings, byName: byName}, nil
}

// LoadEmbedded loads the embedded mappings.yaml file.
func LoadEmbedded() (*Table, error) {
	table, err := NewTable(embeddedMappings)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded mappings (possible binary corruption): %w", err)
	}
	return table, nil
}

// LoadFromFile loads a mapping table from a filesystem path.
func LoadFromFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}
	table, err := NewTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings from %q: %w", path, err)
	}
	return table, nil
}

// Lookup scans the table in file order and returns the first mapping whose
// vendor set matches the normalized description.
func (t *Table) Lookup(description string) (*Mapping, bool) {
	normalized := Normalize(description)

	for i := range t.mappings {
		for _, vendor := range t.mappings[i].Vendors {
			if strings.Contains(normalized, Normalize(vendor)) {
				return &t.mappings[i], true
			}
		}
	}
	return nil, false
}

// ByDisplayName resolves a display category back to its mapping. Used by
// reconciliation to find the spent field a category feeds.
func (t *Table) ByDisplayName(name string) (*Mapping, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Mappings returns a copy of the table entries in their defined order.
func (t *Table) Mappings() []Mapping {
	result := make([]Mapping, len(t.mappings))
	copy(result, t.mappings)
	return result
}
