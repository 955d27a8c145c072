// Package config provides configuration management for findwh.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Loading settings from layered YAML files is handled by the
// impure internal/ioconfig package.
//
// # Configuration Sources
//
// Precedence (highest to lowest): env vars > config files > defaults
//
// # Design Principles
//
//   - Default config (from New()) is always valid - no validation needed
//   - Settings become read-only once the store is initialized
//   - Every named database configuration resolves to connection
//     parameters plus an engine discriminator ("type")
//
// # Environment Variables
//
// Use FINDWH_ prefix with underscores for nesting:
//
//	FINDWH_LOG_LEVEL=debug
//	FINDWH_JOBS_NUMBER=4
package config

import "runtime"

// Config represents the complete findwh configuration.
type Config struct {
	// Environment is the deployment environment name ("dev", "prod").
	// It substitutes the {ENV} token in layered config file names.
	Environment string `mapstructure:"environment" yaml:"environment"`

	// SQLDir is the base directory for SQL template files. Operations
	// that take a file name resolve it relative to this directory.
	SQLDir string `mapstructure:"sql_dir" yaml:"sql_dir"`

	// Databases maps a database configuration name (e.g. "dwh_finance")
	// to its connection parameters. Read-only after settings init.
	Databases map[string]DatabaseConfig `mapstructure:"databases" yaml:"databases"`

	// Ingest contains settings specific to the ingest command.
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for multi-ticker
	// ingestion. Each worker uses its own database session.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`
}

// DatabaseConfig contains connection parameters for one named database.
type DatabaseConfig struct {
	// Type is the engine discriminator. Recognized value: "POSTGRES"
	// (case-insensitive).
	Type string `mapstructure:"type" yaml:"type"`

	// Host is the database server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the database server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the database password.
	Password string `mapstructure:"password" yaml:"password"`

	// DBName is the database name to connect to.
	DBName string `mapstructure:"db_name" yaml:"db_name"`
}

// IngestConfig contains settings specific to the ingest command.
type IngestConfig struct {
	// TickersFile is the YAML file listing ticker symbols to ingest.
	TickersFile string `mapstructure:"tickers_file" yaml:"tickers_file"`

	// ProviderURL is the base URL of the daily-quotes CSV endpoint.
	ProviderURL string `mapstructure:"provider_url" yaml:"provider_url"`

	// CacheDir holds the local SQLite cache of fetched quotes so reruns
	// do not refetch the same trading day.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`

	// FailOnMissing makes an ETL run fail when rows could not be
	// persisted, instead of reporting them as metadata only.
	FailOnMissing bool `mapstructure:"fail_on_missing" yaml:"fail_on_missing"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format" yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level" yaml:"level"`
	// Destination can be a log file path, STDERR or STDOUT.
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
func New() *Config {
	res := &Config{
		Environment: "dev",
		SQLDir:      "sql",
		Databases: map[string]DatabaseConfig{
			"dwh_finance": {
				Type:     "POSTGRES",
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "postgres",
				DBName:   "findwh",
			},
		},
		Ingest: IngestConfig{
			TickersFile: "tickers.yaml",
			ProviderURL: "https://stooq.com/q/d/l",
			CacheDir:    ".cache/findwh",
		},
		Log: LogConfig{
			Format:      "json",
			Level:       "info",
			Destination: "stderr",
		},
		JobsNumber: runtime.NumCPU(),
	}

	return res
}
