package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" HomeDepot ", "lumber", "", "homedepot", "  "})
	assert.Equal(t, []string{"homedepot", "lumber"}, got)
}

func TestCategoryPatch_Apply(t *testing.T) {
	name := "Fuel & Gas"
	keywords := []string{"shell"}
	base := Category{ID: "1", Name: "Fuel", Keywords: []string{"exxon"}, Color: "#f00"}

	got := CategoryPatch{Name: &name, Keywords: &keywords}.Apply(base)

	assert.Equal(t, "Fuel & Gas", got.Name)
	assert.Equal(t, []string{"shell"}, got.Keywords)
	assert.Equal(t, "#f00", got.Color)
	assert.Equal(t, []string{"exxon"}, base.Keywords, "original must not change")
}

func TestCloneCategories(t *testing.T) {
	in := []Category{{Name: "Meals", Keywords: []string{"starbucks"}}}
	out := CloneCategories(in)
	out[0].Keywords[0] = "changed"
	assert.Equal(t, "starbucks", in[0].Keywords[0])
}

func TestDateSortKey(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"10/23", 1023},
		{"1/5", 105},
		{"07/01", 701},
		{"bad", 0},
		{"a/b", 0},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, DateSortKey(tt.date))
		})
	}
}
