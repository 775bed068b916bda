// Package commit writes reviewed transactions to the transaction store.
package commit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway is the only write path for imported transactions.
type Gateway struct {
	store domain.TransactionStore
	newID func() string
}

// NewGateway creates a Gateway over store.
func NewGateway(store domain.TransactionStore) *Gateway {
	return &Gateway{store: store, newID: uuid.NewString}
}

// Commit persists every staged transaction for the account in one atomic
// bulk insert. Either all rows are written or none; the error then wraps
// domain.ErrCommitFailure. No deduplication is done against earlier imports.
func (g *Gateway) Commit(ctx context.Context, bankAccountID string, txs []domain.ParsedTransaction) error {
	log := logger.Component(logger.FromContext(ctx), "commit").With().
		Str("bank_account_id", bankAccountID).
		Int("count", len(txs)).
		Logger()

	bankAccountID = strings.TrimSpace(bankAccountID)
	if bankAccountID == "" {
		return fmt.Errorf("%w: %w", domain.ErrCommitFailure, errors.New("bank account id is required"))
	}
	if len(txs) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrCommitFailure, errors.New("nothing to commit"))
	}

	rows := make([]domain.PersistedTransaction, len(txs))
	for i, tx := range txs {
		rows[i] = ToPersisted(g.newID(), bankAccountID, tx)
	}

	if err := g.store.BulkInsert(ctx, rows); err != nil {
		log.Error().Err(err).Msg("Bulk insert rejected")
		return fmt.Errorf("%w: %w", domain.ErrCommitFailure, err)
	}

	log.Info().Msg("Transactions committed")
	return nil
}

// History lists an account's committed transactions, newest first.
func (g *Gateway) History(ctx context.Context, bankAccountID string) ([]domain.PersistedTransaction, error) {
	if strings.TrimSpace(bankAccountID) == "" {
		return nil, errors.New("History: bank account id is required")
	}
	txs, err := g.store.ListByAccount(ctx, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("History: listing transactions: %w", err)
	}
	return txs, nil
}

// ToPersisted maps a staged row to its durable form. CreatedAt is left for
// the store to assign.
func ToPersisted(id, bankAccountID string, tx domain.ParsedTransaction) domain.PersistedTransaction {
	category := tx.Category
	if category == "" {
		category = domain.Uncategorized
	}
	var balance *decimal.Decimal
	if tx.Balance != nil {
		b := *tx.Balance
		balance = &b
	}
	return domain.PersistedTransaction{
		ID:            id,
		BankAccountID: bankAccountID,
		Date:          tx.Date,
		Description:   tx.Description,
		Amount:        tx.Amount,
		Balance:       balance,
		Category:      category,
		Status:        domain.TransactionStatusPending,
	}
}
