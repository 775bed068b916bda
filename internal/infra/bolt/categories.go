package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dvloznov/opsconsole/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// ListAll returns categories in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cats []domain.Category
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		cats, err = readCategories(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	return cats, nil
}

// Insert stores a new category, rejecting duplicate names.
func (s *Store) Insert(ctx context.Context, c domain.Category) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return domain.Category{}, err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		existing, err := readCategories(tx)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Name == c.Name {
				return fmt.Errorf("%w: %q", domain.ErrDuplicateCategory, c.Name)
			}
		}
		c, err = putNewCategory(tx, c)
		return err
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("Insert: %w", err)
	}
	return c, nil
}

// Update applies patch to the category with the given id.
func (s *Store) Update(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return domain.Category{}, err
	}
	key, err := categoryKey(id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("Update: %w", err)
	}

	var updated domain.Category
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketCategories)
		if err != nil {
			return err
		}
		data := b.Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, id)
		}
		var current domain.Category
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("decoding category %s: %w", id, err)
		}

		updated = patch.Apply(current)
		if updated.Name != current.Name {
			all, err := readCategories(tx)
			if err != nil {
				return err
			}
			for _, e := range all {
				if e.ID != id && e.Name == updated.Name {
					return fmt.Errorf("%w: %q", domain.ErrDuplicateCategory, updated.Name)
				}
			}
		}

		encoded, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("encoding category %s: %w", id, err)
		}
		return b.Put(key, encoded)
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("Update: %w", err)
	}
	return updated, nil
}

// Delete removes the category with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := categoryKey(id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketCategories)
		if err != nil {
			return err
		}
		if b.Get(key) == nil {
			return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, id)
		}
		return b.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts defaults in one write transaction, only if the bucket
// holds no category. bbolt serialises writers, so concurrent callers seed once.
func (s *Store) SeedIfEmpty(ctx context.Context, defaults []domain.Category) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	seeded := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketCategories)
		if err != nil {
			return err
		}
		if k, _ := b.Cursor().First(); k != nil {
			return nil
		}
		for _, c := range defaults {
			if _, err := putNewCategory(tx, c); err != nil {
				return err
			}
		}
		seeded = len(defaults) > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("SeedIfEmpty: %w", err)
	}
	return seeded, nil
}

func putNewCategory(tx *bolt.Tx, c domain.Category) (domain.Category, error) {
	b, err := bucket(tx, BucketCategories)
	if err != nil {
		return domain.Category{}, err
	}
	seq, err := b.NextSequence()
	if err != nil {
		return domain.Category{}, fmt.Errorf("allocating category id: %w", err)
	}
	c.ID = strconv.FormatUint(seq, 10)
	c.Keywords = append([]string{}, c.Keywords...)

	data, err := json.Marshal(c)
	if err != nil {
		return domain.Category{}, fmt.Errorf("encoding category %q: %w", c.Name, err)
	}
	if err := b.Put(itob(seq), data); err != nil {
		return domain.Category{}, fmt.Errorf("writing category %q: %w", c.Name, err)
	}
	return c, nil
}

func readCategories(tx *bolt.Tx) ([]domain.Category, error) {
	b, err := bucket(tx, BucketCategories)
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	err = b.ForEach(func(k, v []byte) error {
		var c domain.Category
		if err := json.Unmarshal(v, &c); err != nil {
			return fmt.Errorf("decoding category: %w", err)
		}
		cats = append(cats, c)
		return nil
	})
	return cats, err
}

func categoryKey(id string) ([]byte, error) {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil || seq == 0 {
		return nil, fmt.Errorf("%w: invalid id %q", domain.ErrCategoryNotFound, id)
	}
	return itob(seq), nil
}
