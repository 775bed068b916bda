// Package catalog manages the shared keyword-to-category catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/logger"
)

// Catalog reads and edits categories through a CategoryStore. It holds no
// state of its own and takes no locks; seeding is made race-free by the
// store's conditional insert.
type Catalog struct {
	store    domain.CategoryStore
	defaults []domain.Category
}

// New creates a Catalog seeded from the built-in defaults.
func New(store domain.CategoryStore) *Catalog {
	return NewWithDefaults(store, Defaults())
}

// NewWithDefaults creates a Catalog with a custom default set.
func NewWithDefaults(store domain.CategoryStore, defaults []domain.Category) *Catalog {
	return &Catalog{store: store, defaults: domain.CloneCategories(defaults)}
}

// List returns every category in catalog order. An empty store is seeded
// first. When the store cannot be reached the defaults are returned from
// memory and nothing is persisted.
func (c *Catalog) List(ctx context.Context) ([]domain.Category, error) {
	log := logger.Component(logger.FromContext(ctx), "catalog")

	cats, err := c.store.ListAll(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Msg("Category store unavailable, using in-memory defaults")
		return domain.CloneCategories(c.defaults), nil
	}
	if len(cats) > 0 {
		return cats, nil
	}

	if _, err := c.EnsureSeeded(ctx); err != nil {
		log.Warn().Err(err).Msg("Seeding failed, using in-memory defaults")
		return domain.CloneCategories(c.defaults), nil
	}

	cats, err = c.store.ListAll(ctx)
	if err != nil || len(cats) == 0 {
		log.Warn().Err(err).Msg("Listing after seed failed, using in-memory defaults")
		return domain.CloneCategories(c.defaults), nil
	}
	return cats, nil
}

// EnsureSeeded writes the defaults if and only if the store is empty. It is
// safe to call concurrently and repeatedly; it reports whether this call seeded.
func (c *Catalog) EnsureSeeded(ctx context.Context) (bool, error) {
	seeded, err := c.store.SeedIfEmpty(ctx, domain.CloneCategories(c.defaults))
	if err != nil {
		return false, fmt.Errorf("EnsureSeeded: seeding defaults: %w", err)
	}
	if seeded {
		log := logger.Component(logger.FromContext(ctx), "catalog")
		log.Info().
			Int("count", len(c.defaults)).
			Msg("Seeded default categories")
	}
	return seeded, nil
}

// Create validates and stores a new category.
func (c *Catalog) Create(ctx context.Context, cat domain.Category) (domain.Category, error) {
	cat.ID = ""
	cat.Name = strings.TrimSpace(cat.Name)
	cat.Color = strings.TrimSpace(cat.Color)
	cat.Keywords = domain.NormalizeKeywords(cat.Keywords)
	if cat.Name == "" {
		return domain.Category{}, saveError(fmt.Errorf("%w: name is required", domain.ErrInvalidCategory))
	}

	created, err := c.store.Insert(ctx, cat)
	if err != nil {
		return domain.Category{}, saveError(fmt.Errorf("Create: inserting %q: %w", cat.Name, err))
	}
	return created, nil
}

// Update applies a partial change to an existing category.
func (c *Catalog) Update(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error) {
	if id == "" {
		return domain.Category{}, saveError(domain.ErrCategoryNotFound)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Category{}, saveError(fmt.Errorf("%w: name is required", domain.ErrInvalidCategory))
		}
		patch.Name = &name
	}
	if patch.Keywords != nil {
		keywords := domain.NormalizeKeywords(*patch.Keywords)
		patch.Keywords = &keywords
	}
	if patch.Color != nil {
		color := strings.TrimSpace(*patch.Color)
		patch.Color = &color
	}

	updated, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Category{}, saveError(fmt.Errorf("Update: updating %s: %w", id, err))
	}
	return updated, nil
}

// Delete removes a category. Transactions already classified keep their name.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if id == "" {
		return saveError(domain.ErrCategoryNotFound)
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return saveError(fmt.Errorf("Delete: deleting %s: %w", id, err))
	}
	return nil
}

func saveError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrCatalogSave, err)
}
