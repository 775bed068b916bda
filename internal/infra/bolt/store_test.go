package bolt

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCategories_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	meals, err := s.Insert(ctx, domain.Category{Name: "Meals", Keywords: []string{"starbucks"}, Color: "#D81B60"})
	require.NoError(t, err)
	assert.Equal(t, "1", meals.ID)

	fuel, err := s.Insert(ctx, domain.Category{Name: "Fuel"})
	require.NoError(t, err)
	assert.Equal(t, "2", fuel.ID)

	_, err = s.Insert(ctx, domain.Category{Name: "Meals"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)

	cats, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Meals", cats[0].Name)
	assert.Equal(t, []string{"starbucks"}, cats[0].Keywords)
	assert.Equal(t, "Fuel", cats[1].Name)

	keywords := []string{"shell"}
	updated, err := s.Update(ctx, fuel.ID, domain.CategoryPatch{Keywords: &keywords})
	require.NoError(t, err)
	assert.Equal(t, "Fuel", updated.Name)
	assert.Equal(t, []string{"shell"}, updated.Keywords)

	rename := "Meals"
	_, err = s.Update(ctx, fuel.ID, domain.CategoryPatch{Name: &rename})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)

	same := "Fuel"
	_, err = s.Update(ctx, fuel.ID, domain.CategoryPatch{Name: &same})
	assert.NoError(t, err)

	_, err = s.Update(ctx, "99", domain.CategoryPatch{})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	_, err = s.Update(ctx, "abc", domain.CategoryPatch{})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	require.NoError(t, s.Delete(ctx, meals.ID))
	assert.ErrorIs(t, s.Delete(ctx, meals.ID), domain.ErrCategoryNotFound)

	cats, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Fuel", cats[0].Name)
}

func TestCategories_SeedIfEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	defaults := []domain.Category{{Name: "Materials"}, {Name: "Fuel"}, {Name: "Meals"}}

	seeded, err := s.SeedIfEmpty(ctx, defaults)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = s.SeedIfEmpty(ctx, defaults)
	require.NoError(t, err)
	assert.False(t, seeded)

	cats, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Materials", cats[0].Name)
	assert.Equal(t, "Meals", cats[2].Name)
}

func TestCategories_SeedIfEmptyConcurrent(t *testing.T) {
	s := openTestStore(t)
	defaults := []domain.Category{{Name: "Materials"}, {Name: "Fuel"}}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seeded, err := s.SeedIfEmpty(context.Background(), defaults)
			assert.NoError(t, err)
			if seeded {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	cats, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}

func TestCategories_SeedSkippedWhenUserCategoryExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, domain.Category{Name: "Tools"})
	require.NoError(t, err)

	seeded, err := s.SeedIfEmpty(ctx, []domain.Category{{Name: "Materials"}})
	require.NoError(t, err)
	assert.False(t, seeded)
}

func txRow(id, account, date, amount string) domain.PersistedTransaction {
	return domain.PersistedTransaction{
		ID:            id,
		BankAccountID: account,
		Date:          date,
		Description:   "row " + id,
		Amount:        decimal.RequireFromString(amount),
		Category:      domain.Uncategorized,
		Status:        domain.TransactionStatusPending,
	}
}

func TestTransactions_BulkInsertAndList(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	balance := decimal.RequireFromString("865.10")
	first := txRow("a", "acct-1", "9/30", "-21.83")
	first.Balance = &balance
	err := s.BulkInsert(ctx, []domain.PersistedTransaction{
		first,
		txRow("b", "acct-1", "10/23", "-5.25"),
		txRow("c", "acct-2", "12/01", "100.00"),
		txRow("d", "acct-1", "10/3", "1000.00"),
	})
	require.NoError(t, err)

	txs, err := s.ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{"b", "d", "a"}, []string{txs[0].ID, txs[1].ID, txs[2].ID})
	for _, tx := range txs {
		assert.True(t, tx.CreatedAt.Equal(fixed))
	}
	require.NotNil(t, txs[2].Balance)
	assert.True(t, txs[2].Balance.Equal(balance))
	assert.True(t, txs[2].Amount.Equal(decimal.RequireFromString("-21.83")))

	other, err := s.ListByAccount(ctx, "acct-3")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTransactions_SameDateNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BulkInsert(ctx, []domain.PersistedTransaction{txRow("old", "acct", "5/5", "1.00")}))
	require.NoError(t, s.BulkInsert(ctx, []domain.PersistedTransaction{txRow("new", "acct", "5/5", "2.00")}))

	txs, err := s.ListByAccount(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "new", txs[0].ID)
}

func TestTransactions_BulkInsertAllOrNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bad := txRow("", "acct-1", "1/2", "3.00")
	err := s.BulkInsert(ctx, []domain.PersistedTransaction{
		txRow("a", "acct-1", "1/1", "1.00"),
		txRow("b", "acct-1", "1/1", "2.00"),
		bad,
	})
	require.Error(t, err)

	txs, err := s.ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestStore_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.BulkInsert(ctx, []domain.PersistedTransaction{txRow("a", "b", "1/1", "1.00")}), context.Canceled)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(context.Background(), domain.Category{Name: "Meals"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	cats, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Meals", cats[0].Name)
}
