package cmd

import (
	"context"
	"fmt"

	"github.com/dvloznov/opsconsole/internal/config"
	"github.com/dvloznov/opsconsole/internal/domain"
	infraBQ "github.com/dvloznov/opsconsole/internal/infra/bigquery"
	"github.com/dvloznov/opsconsole/internal/infra/bolt"
	"github.com/spf13/cobra"
)

var (
	backend   string
	boltPath  string
	projectID string
	datasetID string
)

// addStoreFlags registers the backend selection flags on cmd.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backend, "backend", "", "store backend (bigquery or bolt), overrides STORE_BACKEND")
	cmd.Flags().StringVar(&boltPath, "bolt-path", "", "bbolt database file, overrides BOLT_PATH")
	cmd.Flags().StringVar(&projectID, "project", "", "GCP project ID, overrides GCP_PROJECT_ID")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "BigQuery dataset ID, overrides BIGQUERY_DATASET")
}

func applyStoreFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Lookup("backend") == nil {
		return
	}
	if cmd.Flags().Changed("backend") {
		cfg.StoreBackend = backend
	}
	if cmd.Flags().Changed("bolt-path") {
		cfg.BoltPath = boltPath
	}
	if cmd.Flags().Changed("project") {
		cfg.BigQuery.ProjectID = projectID
	}
	if cmd.Flags().Changed("dataset") {
		cfg.BigQuery.Dataset = datasetID
	}
}

// stores bundles the configured backend's stores.
type stores struct {
	categories   domain.CategoryStore
	transactions domain.TransactionStore
	bigquery     *infraBQ.Repositories
	close        func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendBigQuery:
		repos, err := infraBQ.Open(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
		if err != nil {
			return nil, fmt.Errorf("openStores: %w", err)
		}
		return &stores{
			categories:   repos.Categories,
			transactions: repos.Transactions,
			bigquery:     repos,
			close:        repos.Close,
		}, nil
	case config.BackendBolt:
		db, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("openStores: %w", err)
		}
		return &stores{
			categories:   db,
			transactions: db,
			close:        db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("openStores: unknown backend %q", cfg.StoreBackend)
	}
}
