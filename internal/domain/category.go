package domain

import "strings"

// Category is a named keyword bucket used to auto-classify transactions.
type Category struct {
	ID       string   `json:"id" yaml:"-"`
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Color    string   `json:"color" yaml:"color"`
}

// CategoryPatch is a partial update; nil fields are left unchanged.
type CategoryPatch struct {
	Name     *string   `json:"name,omitempty"`
	Keywords *[]string `json:"keywords,omitempty"`
	Color    *string   `json:"color,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Keywords != nil {
		c.Keywords = append([]string(nil), (*p.Keywords)...)
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

// NormalizeKeywords trims, lowercases and dedupes keywords, dropping empty ones.
// Order of first occurrence is kept.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// CloneCategories returns a deep copy so callers can't mutate shared slices.
func CloneCategories(in []Category) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		c.Keywords = append([]string(nil), c.Keywords...)
		out[i] = c
	}
	return out
}
