// Package classifier assigns catalog categories to parsed transactions by
// keyword substring match.
package classifier

import (
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
)

// Classify returns the name of the first category, in catalog order, that has
// a keyword contained in the description (case-insensitive). It returns
// domain.Uncategorized when nothing matches.
func Classify(description string, catalog []domain.Category) string {
	desc := strings.ToLower(description)
	for _, c := range catalog {
		for _, keyword := range c.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			if strings.Contains(desc, keyword) {
				return c.Name
			}
		}
	}
	return domain.Uncategorized
}

// ClassifyAll sets the category of every transaction in place and returns
// how many matched a catalog entry.
func ClassifyAll(txs []domain.ParsedTransaction, catalog []domain.Category) int {
	matched := 0
	for i := range txs {
		txs[i].Category = Classify(txs[i].Description, catalog)
		if txs[i].Category != domain.Uncategorized {
			matched++
		}
	}
	return matched
}
