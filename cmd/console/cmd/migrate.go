package cmd

import (
	"context"
	"fmt"

	"github.com/dvloznov/opsconsole/internal/catalog"
	"github.com/dvloznov/opsconsole/internal/config"
	infraBQ "github.com/dvloznov/opsconsole/internal/infra/bigquery"
	"github.com/dvloznov/opsconsole/internal/logger"
	"github.com/spf13/cobra"
)

var appliedBy string

// migrateCmd applies schema migrations and seeds the category catalog.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and seed default categories",
	Long: `Apply pending BigQuery schema migrations, tracked in schema_migrations,
then seed the default categories into an empty catalog.

With the bolt backend there is no schema; only seeding runs.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&appliedBy, "applied-by", "console-migrate", "Name recorded for applied migrations")
	addStoreFlags(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(context.Background(), log)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.StoreBackend == config.BackendBigQuery {
		migrator := infraBQ.NewMigrator(st.bigquery.Client(), cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, appliedBy, log)
		applied, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		if applied == 0 {
			log.Info().Msg("No new migrations to apply. Database is up to date.")
		} else {
			log.Info().Int("count", applied).Msg("Applied migrations")
		}
	}

	seeded, err := catalog.New(st.categories).EnsureSeeded(ctx)
	if err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}
	log.Info().Bool("seeded", seeded).Msg("Category catalog ready")
	return nil
}
