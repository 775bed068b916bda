package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/opsconsole/internal/domain"
	"google.golang.org/api/iterator"
)

// BigQueryTransactionRepository implements domain.TransactionStore.
type BigQueryTransactionRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryTransactionRepository creates a repository over a shared client.
func NewBigQueryTransactionRepository(client *bigquery.Client, dataset string) *BigQueryTransactionRepository {
	return &BigQueryTransactionRepository{client: client, dataset: dataset}
}

func (r *BigQueryTransactionRepository) table() string {
	return tableRef(r.dataset, transactionsTable)
}

// BulkInsert writes all rows with one DML statement. A DML statement is
// atomic in BigQuery, so either every row lands or none does. Streaming
// inserts are not used because they can partially succeed.
func (r *BigQueryTransactionRepository) BulkInsert(ctx context.Context, rows []domain.PersistedTransaction) error {
	if len(rows) == 0 {
		return nil
	}

	params := make([]transactionParam, len(rows))
	for i, row := range rows {
		params[i] = toTransactionParam(row)
	}

	q := r.client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			transaction_id,
			bank_account_id,
			transaction_date,
			date_key,
			description,
			amount,
			balance,
			category_name,
			status,
			created_ts
		)
		SELECT
			t.transaction_id,
			t.bank_account_id,
			t.transaction_date,
			t.date_key,
			t.description,
			t.amount,
			IF(t.has_balance, t.balance, NULL),
			t.category_name,
			t.status,
			CURRENT_TIMESTAMP()
		FROM UNNEST(@rows) AS t
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: params},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("BulkInsert: %w", err)
	}
	if affected != int64(len(rows)) {
		return fmt.Errorf("BulkInsert: inserted %d of %d rows", affected, len(rows))
	}
	return nil
}

// ListByAccount returns the account's transactions, latest date first.
func (r *BigQueryTransactionRepository) ListByAccount(ctx context.Context, bankAccountID string) ([]domain.PersistedTransaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			bank_account_id,
			transaction_date,
			date_key,
			description,
			amount,
			balance,
			category_name,
			status,
			created_ts
		FROM %s
		WHERE bank_account_id = @bank_account_id
		ORDER BY date_key DESC, created_ts DESC
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "bank_account_id", Value: bankAccountID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: query read: %w", err)
	}

	var txs []domain.PersistedTransaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: iter next: %w", err)
		}
		txs = append(txs, row.ToDomain())
	}
	return txs, nil
}
