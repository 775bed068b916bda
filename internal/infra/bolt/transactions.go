package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dvloznov/opsconsole/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// BulkInsert writes every row in a single write transaction; if any row
// fails the transaction rolls back and nothing is stored.
func (s *Store) BulkInsert(ctx context.Context, rows []domain.PersistedTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	createdAt := s.now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTransactions)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if row.ID == "" || row.BankAccountID == "" {
				return fmt.Errorf("row %d: id and bank account id are required", i)
			}
			row.CreatedAt = createdAt

			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("row %d: allocating key: %w", i, err)
			}
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("row %d: encoding: %w", i, err)
			}
			if err := b.Put(itob(seq), data); err != nil {
				return fmt.Errorf("row %d: writing: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("BulkInsert: %w", err)
	}
	return nil
}

// ListByAccount returns the account's transactions, latest statement date
// first; rows on the same date are newest-inserted first.
func (s *Store) ListByAccount(ctx context.Context, bankAccountID string) ([]domain.PersistedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.PersistedTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTransactions)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var row domain.PersistedTransaction
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("decoding transaction: %w", err)
			}
			if row.BankAccountID == bankAccountID {
				out = append(out, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return domain.DateSortKey(out[i].Date) > domain.DateSortKey(out[j].Date)
	})
	return out, nil
}
