package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/opsconsole/internal/domain"
)

const categoriesTable = "categories"

// CategoryRow is a row of the categories table.
type CategoryRow struct {
	CategoryID string              `bigquery:"category_id"` // REQUIRED
	Name       string              `bigquery:"name"`        // REQUIRED
	Keywords   []string            `bigquery:"keywords"`    // REPEATED STRING
	Color      bigquery.NullString `bigquery:"color"`       // NULLABLE
	Position   int64               `bigquery:"position"`    // REQUIRED
	CreatedTS  time.Time           `bigquery:"created_ts"`  // REQUIRED
}

// ToDomain converts the row to a domain category.
func (r CategoryRow) ToDomain() domain.Category {
	c := domain.Category{
		ID:       r.CategoryID,
		Name:     r.Name,
		Keywords: append([]string{}, r.Keywords...),
	}
	if r.Color.Valid {
		c.Color = r.Color.StringVal
	}
	return c
}

// seedParam is one element of the @rows ARRAY<STRUCT> parameter.
type seedParam struct {
	CategoryID string   `bigquery:"category_id"`
	Name       string   `bigquery:"name"`
	Keywords   []string `bigquery:"keywords"`
	Color      string   `bigquery:"color"`
	Position   int64    `bigquery:"position"`
}

func toSeedParams(defaults []domain.Category, newID func() string) []seedParam {
	params := make([]seedParam, len(defaults))
	for i, c := range defaults {
		params[i] = seedParam{
			CategoryID: newID(),
			Name:       c.Name,
			Keywords:   append([]string{}, c.Keywords...),
			Color:      c.Color,
			Position:   int64(i + 1),
		}
	}
	return params
}
