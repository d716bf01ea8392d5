package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/iocache"
	"github.com/huangsam/recap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyConfig reads and validates the history backend settings.
// An empty backend means none.
func historyConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.NoneBackend
	if s := viper.GetString("history-backend"); s != "" {
		backend = schema.DatabaseBackend(s)
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	// No event cache for history commands
	if err := iocache.InitCaching("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historyMigrateSetup does NOT open the store, so migrations can run on any schema version.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = contract.GetHistoryDBFilePath()
	}
	return nil
}

// historyFilePath returns the SQLite file of the run history.
func historyFilePath() string {
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return contract.GetHistoryDBFilePath()
}

// historyCmd focused on run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of recap runs",
	Long: `Manage the stored history of summary and activity runs.

When --history-backend is set, recap stores every run:
- Run metadata (user, timestamps, configuration, duration)
- The activity records the run produced, in output order
- The length of the generated summary

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check history status
  recap history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  recap history export --history-backend sqlite --output-file recap-history`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs and activity records",
	Long: `Delete all stored runs and their activity records.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  recap history export --output-file backup
  recap history clear`,
	PreRunE: historySetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		iocache.CloseCaching()
		if err := iocache.ClearHistory(cfg.HistoryBackend, historyFilePath(), cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		cmd.Println("History cleared successfully.")
		return nil
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history.

Displays:
- Backend type and connection status
- Total number of runs and activity records stored
- Last and oldest run timestamps
- Table sizes`,
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			return fmt.Errorf("no history backend configured")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		return iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and activity records to Parquet.

Writes two files next to each other:
- <output-file>.runs.parquet
- <output-file>.activity_records.parquet

Requires: --output-file parameter

Examples:
  # Export all data
  recap history export --output-file recap-data

  # Query with DuckDB
  duckdb -c "SELECT username, count(*) FROM 'recap-data.runs.parquet' GROUP BY 1"`,
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return iocache.ExportHistory(iocache.Manager.GetHistoryStore(), cfg.OutputFile, os.Stdout)
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  recap history migrate --history-backend sqlite

  # Migrate to specific version
  recap history migrate --target-version 1

  # Rollback to the initial state
  recap history migrate --target-version 0`,
	PreRunE: historyMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		result, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if !result.Changed {
			cmd.Printf("History schema already at version %d.\n", result.ToVersion)
			return nil
		}
		cmd.Printf("Migrated history schema from version %d to %d.\n", result.FromVersion, result.ToVersion)
		return nil
	},
}
