package domain

import "context"

// CategoryStore persists the shared category catalog.
type CategoryStore interface {
	// ListAll returns every category in stable catalog order.
	ListAll(ctx context.Context) ([]Category, error)

	// Insert stores a new category and returns it with its assigned ID.
	Insert(ctx context.Context, c Category) (Category, error)

	// Update applies a partial update to the category with the given ID.
	Update(ctx context.Context, id string, patch CategoryPatch) (Category, error)

	// Delete removes the category with the given ID.
	Delete(ctx context.Context, id string) error

	// SeedIfEmpty inserts defaults only when the store holds no category.
	// The emptiness check and the insert happen atomically; it reports whether it seeded.
	SeedIfEmpty(ctx context.Context, defaults []Category) (bool, error)
}

// TransactionStore persists committed transactions.
type TransactionStore interface {
	// BulkInsert writes all rows or none.
	BulkInsert(ctx context.Context, rows []PersistedTransaction) error

	// ListByAccount returns an account's transactions ordered by date, newest first.
	ListByAccount(ctx context.Context, bankAccountID string) ([]PersistedTransaction, error)
}
