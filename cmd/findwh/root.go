package main

import (
	"fmt"
	"log/slog"

	"github.com/findata/findwh/internal/ioconfig"
	"github.com/findata/findwh/pkg/logger"
	"github.com/spf13/cobra"
)

// dwhName is the database configuration the warehouse commands operate
// on.
const dwhName = "dwh_finance"

var (
	cfgFiles []string
	store    = ioconfig.NewStore()
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "findwh",
		Short: "findwh manages the finance data warehouse lifecycle",
		Long: `findwh is a CLI tool for managing the finance data warehouse in
PostgreSQL, from schema creation through quote ingest to materialized
view maintenance.

The tool provides three main phases:
  - init: Create warehouse schemas, tables and views
  - ingest: Download daily OHLC quotes and load them into the raw layer
  - refresh: Refresh the core layer's materialized views

Configuration is layered: later files extend earlier ones, and a
duplicated top-level key across layers is a hard error. The {ENV} token
in file names resolves to the FINDWH_ENV environment variable
(default "dev").

Environment Variables:
  All configuration can be set via FINDWH_* environment variables.
  Nested fields use underscores (log.level → FINDWH_LOG_LEVEL).

  Examples:
    FINDWH_ENV                 environment layer (dev/prod)
    FINDWH_LOG_LEVEL           log level (debug/info/warn/error)
    FINDWH_JOBS_NUMBER         concurrent ingest workers

  See 'go doc github.com/findata/findwh/pkg/config' for complete list.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Init(cfgFiles...); err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			cfg, err := store.Config()
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			slog.SetDefault(log)

			return nil
		},
	}

	// Persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringSliceVar(&cfgFiles, "config",
		[]string{"config/base.yaml", "config/{ENV}/dwh.yaml"},
		"layered config files, later files extend earlier ones")

	// Add subcommands
	rootCmd.AddCommand(getInitCmd())
	rootCmd.AddCommand(getIngestCmd())
	rootCmd.AddCommand(getRefreshCmd())

	return rootCmd
}

// getStore returns the process settings store (for use in subcommands).
func getStore() *ioconfig.Store {
	return store
}
