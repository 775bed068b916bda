// Package cmd provides the console's CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/dvloznov/opsconsole/internal/config"
	"github.com/dvloznov/opsconsole/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Bank statement import console",
	Long: `console serves the statement import API: upload a statement, review the
parsed transactions and their categories, then commit them to the ledger.

Example:
  console migrate --backend bigquery --project my-project
  console serve --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads configuration and applies the flags shared by all commands.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("loading configuration: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	applyStoreFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}
