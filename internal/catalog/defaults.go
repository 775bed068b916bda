package catalog

import (
	_ "embed"
	"fmt"

	"github.com/dvloznov/opsconsole/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultsFile struct {
	Categories []domain.Category `yaml:"categories"`
}

var defaultCategories = mustParseDefaults(defaultsYAML)

// ParseDefaults decodes a defaults document and normalises its keywords.
func ParseDefaults(data []byte) ([]domain.Category, error) {
	var f defaultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ParseDefaults: decoding yaml: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("ParseDefaults: no categories defined")
	}

	seen := make(map[string]bool, len(f.Categories))
	for i := range f.Categories {
		c := &f.Categories[i]
		if c.Name == "" {
			return nil, fmt.Errorf("ParseDefaults: category %d has no name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("ParseDefaults: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		c.Keywords = domain.NormalizeKeywords(c.Keywords)
	}
	return f.Categories, nil
}

func mustParseDefaults(data []byte) []domain.Category {
	cats, err := ParseDefaults(data)
	if err != nil {
		panic(err)
	}
	return cats
}

// Defaults returns a fresh copy of the built-in default categories.
func Defaults() []domain.Category {
	return domain.CloneCategories(defaultCategories)
}
