// Package bigquery implements the category and transaction stores on
// BigQuery, plus the schema migrations they need.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// Repositories holds the shared BigQuery client used by both stores.
type Repositories struct {
	client       *bigquery.Client
	Categories   *BigQueryCategoryRepository
	Transactions *BigQueryTransactionRepository
}

// Open creates a single client for projectID and wires both repositories
// against dataset.
func Open(ctx context.Context, projectID, dataset string) (*Repositories, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("Open: creating client: %w", err)
	}
	return &Repositories{
		client:       client,
		Categories:   NewBigQueryCategoryRepository(client, dataset),
		Transactions: NewBigQueryTransactionRepository(client, dataset),
	}, nil
}

// Client exposes the shared client, for migrations.
func (r *Repositories) Client() *bigquery.Client {
	return r.client
}

// Close closes the BigQuery client connection.
func (r *Repositories) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func tableRef(dataset, table string) string {
	return fmt.Sprintf("`%s.%s`", dataset, table)
}

// dmlWaitTimeout bounds how long runDML waits for a submitted job.
const dmlWaitTimeout = 5 * time.Minute

// runDML runs a DML query to completion and returns the affected row count.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	// A submitted job runs to completion regardless of ctx, so wait for its
	// real outcome instead of reporting the caller's cancellation.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dmlWaitTimeout)
	defer cancel()

	status, err := job.Wait(waitCtx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
