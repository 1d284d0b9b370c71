package ledger

import (
	"fmt"
	"os"

	"fintrack/internal/core"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a categories seed:
//
//	categories:
//	  - name: Groceries
//	    type: Expense
type seedFile struct {
	Categories []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"categories"`
}

// LoadSeed reads default categories from a YAML file. Every entry must have
// a name and a known type.
func LoadSeed(path string) ([]core.Category, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(b)
}

// ParseSeed decodes a YAML categories seed.
func ParseSeed(b []byte) ([]core.Category, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]core.Category, 0, len(f.Categories))
	for i, c := range f.Categories {
		typ, err := core.ParseTxType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%q): %w", i, c.Name, err)
		}
		cat := core.Category{Name: c.Name, Type: typ}
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		out = append(out, cat)
	}
	return out, nil
}
