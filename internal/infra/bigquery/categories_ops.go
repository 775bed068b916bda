package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// BigQueryCategoryRepository implements domain.CategoryStore.
type BigQueryCategoryRepository struct {
	client  *bigquery.Client
	dataset string
	newID   func() string
}

// NewBigQueryCategoryRepository creates a repository over a shared client.
func NewBigQueryCategoryRepository(client *bigquery.Client, dataset string) *BigQueryCategoryRepository {
	return &BigQueryCategoryRepository{client: client, dataset: dataset, newID: uuid.NewString}
}

func (r *BigQueryCategoryRepository) table() string {
	return tableRef(r.dataset, categoriesTable)
}

// ListAll returns categories ordered by position.
func (r *BigQueryCategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.queryCategories(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	cats := make([]domain.Category, len(rows))
	for i, row := range rows {
		cats[i] = row.ToDomain()
	}
	return cats, nil
}

func (r *BigQueryCategoryRepository) queryCategories(ctx context.Context, where string, params []bigquery.QueryParameter) ([]CategoryRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT category_id, name, keywords, color, position, created_ts
		FROM %s
		%s
		ORDER BY position, created_ts
	`, r.table(), where))
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []CategoryRow
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *BigQueryCategoryRepository) get(ctx context.Context, id string) (domain.Category, error) {
	rows, err := r.queryCategories(ctx, "WHERE category_id = @category_id", []bigquery.QueryParameter{
		{Name: "category_id", Value: id},
	})
	if err != nil {
		return domain.Category{}, err
	}
	if len(rows) == 0 {
		return domain.Category{}, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, id)
	}
	return rows[0].ToDomain(), nil
}

// Insert appends a category unless one with the same name exists. The name
// check and the insert are one statement.
func (r *BigQueryCategoryRepository) Insert(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = r.newID()
	c.Keywords = append([]string{}, c.Keywords...)

	q := r.client.Query(fmt.Sprintf(`
		INSERT INTO %[1]s (category_id, name, keywords, color, position, created_ts)
		SELECT
			@category_id,
			@name,
			@keywords,
			@color,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM %[1]s),
			CURRENT_TIMESTAMP()
		FROM UNNEST([1])
		WHERE NOT EXISTS (SELECT 1 FROM %[1]s WHERE name = @name)
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: c.ID},
		{Name: "name", Value: c.Name},
		{Name: "keywords", Value: c.Keywords},
		{Name: "color", Value: c.Color},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return domain.Category{}, fmt.Errorf("Insert: %w", err)
	}
	if affected == 0 {
		return domain.Category{}, fmt.Errorf("Insert: %w: %q", domain.ErrDuplicateCategory, c.Name)
	}
	return c, nil
}

// Update applies patch; a rename to a name used by another category is refused.
func (r *BigQueryCategoryRepository) Update(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error) {
	current, err := r.get(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("Update: %w", err)
	}
	updated := patch.Apply(current)

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %[1]s
		SET name = @name, keywords = @keywords, color = @color
		WHERE category_id = @category_id
		  AND NOT EXISTS (
			SELECT 1 FROM %[1]s WHERE name = @name AND category_id != @category_id
		  )
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: id},
		{Name: "name", Value: updated.Name},
		{Name: "keywords", Value: append([]string{}, updated.Keywords...)},
		{Name: "color", Value: updated.Color},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return domain.Category{}, fmt.Errorf("Update: %w", err)
	}
	if affected == 0 {
		return domain.Category{}, fmt.Errorf("Update: %w: %q", domain.ErrDuplicateCategory, updated.Name)
	}
	return updated, nil
}

// Delete removes the category with the given id.
func (r *BigQueryCategoryRepository) Delete(ctx context.Context, id string) error {
	q := r.client.Query(fmt.Sprintf(`DELETE FROM %s WHERE category_id = @category_id`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: id},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("Delete: %w: %s", domain.ErrCategoryNotFound, id)
	}
	return nil
}

// SeedIfEmpty inserts defaults with a single conditional INSERT, so the
// emptiness check and the write are evaluated against the same snapshot.
func (r *BigQueryCategoryRepository) SeedIfEmpty(ctx context.Context, defaults []domain.Category) (bool, error) {
	if len(defaults) == 0 {
		return false, nil
	}

	q := r.client.Query(fmt.Sprintf(`
		INSERT INTO %[1]s (category_id, name, keywords, color, position, created_ts)
		SELECT c.category_id, c.name, c.keywords, c.color, c.position, CURRENT_TIMESTAMP()
		FROM UNNEST(@rows) AS c
		WHERE NOT EXISTS (SELECT 1 FROM %[1]s)
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: toSeedParams(defaults, r.newID)},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return false, fmt.Errorf("SeedIfEmpty: %w", err)
	}
	return affected > 0, nil
}
