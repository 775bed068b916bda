package handlers

import (
	"context"

	"github.com/dvloznov/opsconsole/internal/domain"
)

// CategoryCatalog is the catalog surface the HTTP layer uses.
type CategoryCatalog interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, cat domain.Category) (domain.Category, error)
	Update(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// TransactionGateway commits staged rows and reads back history.
type TransactionGateway interface {
	Commit(ctx context.Context, bankAccountID string, txs []domain.ParsedTransaction) error
	History(ctx context.Context, bankAccountID string) ([]domain.PersistedTransaction, error)
}

// CategorySuggester proposes a catalog name for a description.
type CategorySuggester interface {
	Suggest(ctx context.Context, description string, catalog []domain.Category) (string, error)
}
