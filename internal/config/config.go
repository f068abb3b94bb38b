// =============================================================================
// catatkeu - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file and
// applies defaults and environment overrides.
//
// CONFIGURATION FILE (config.yaml):
//
//   database:
//     driver: sqlite        # sqlite | postgres | memory
//     dsn: ./catatkeu.db
//     auto_migrate: true
//   inbox_dir: ./inbox
//   archive_dir: ./archive
//   archive_on_success: false
//   archive_by_date: false
//   log_dir: ./logs
//   log_file: ""
//   log_level: info
//   date_1904: false
//   defaults:
//     debt_kind: Lainnya
//     income_kind: Lainnya
//     debt_term_months: 12
//
// ENVIRONMENT OVERRIDES:
//   CATATKEU_DB_DRIVER  replaces database.driver
//   CATATKEU_DB_DSN     replaces database.dsn
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Environment variables that override the file.
const (
	EnvDBDriver = "CATATKEU_DB_DRIVER"
	EnvDBDSN    = "CATATKEU_DB_DSN"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// Database selects and configures the storage backend.
	Database Database `yaml:"database"`

	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InboxDir is scanned by `import --inbox` for .xlsx, .xls and .txt files.
	// Default: "./inbox"
	InboxDir string `yaml:"inbox_dir"`

	// ArchiveDir receives imported files when ArchiveOnSuccess is set.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveOnSuccess moves a file to ArchiveDir after a successful import.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// ArchiveByDate files archived exports under YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// LogDir receives one run log per import command.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile mirrors console logging into a file when set.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// IMPORT SETTINGS
	// =========================================================================

	// Date1904 forces the 1904 date system for workbook serial dates. Workbooks
	// that declare the 1904 system themselves are honored regardless.
	Date1904 bool `yaml:"date_1904"`

	// Defaults fill optional record fields.
	Defaults Defaults `yaml:"defaults"`
}

// Database configures the storage backend.
type Database struct {
	// Driver is one of "sqlite", "postgres" or "memory".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the sqlite file path or the postgres connection string.
	// Default: "./catatkeu.db"
	DSN string `yaml:"dsn"`

	// AutoMigrate creates missing tables on startup. A nil value means true.
	AutoMigrate *bool `yaml:"auto_migrate"`
}

// ShouldMigrate reports whether tables are auto-migrated.
func (d Database) ShouldMigrate() bool {
	return d.AutoMigrate == nil || *d.AutoMigrate
}

// Defaults are the values used when an imported record leaves a field out.
type Defaults struct {
	// DebtKind is the debt type used when "Tipe" is empty.
	DebtKind string `yaml:"debt_kind"`

	// IncomeKind is the income type used when "Tipe" is empty.
	IncomeKind string `yaml:"income_kind"`

	// DebtTermMonths is the debt period used when "Periode" is empty or not
	// positive.
	DebtTermMonths int `yaml:"debt_term_months"`
}

// =============================================================================
// LOADING
// =============================================================================

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	applyEnvOverrides(config)
	return config
}

// LoadMainConfig loads the main configuration file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	applyEnvOverrides(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Database.Driver == "" {
		config.Database.Driver = DriverSQLite
	}
	if config.Database.DSN == "" && config.Database.Driver == DriverSQLite {
		config.Database.DSN = "./catatkeu.db"
	}
	if config.InboxDir == "" {
		config.InboxDir = "./inbox"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.LogDir == "" {
		config.LogDir = "./logs"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Defaults.DebtKind == "" {
		config.Defaults.DebtKind = "Lainnya"
	}
	if config.Defaults.IncomeKind == "" {
		config.Defaults.IncomeKind = "Lainnya"
	}
	if config.Defaults.DebtTermMonths == 0 {
		config.Defaults.DebtTermMonths = 12
	}
}

// applyEnvOverrides lets deployments point at a database without editing the file.
func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv(EnvDBDriver); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		config.Database.DSN = v
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))
	switch config.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if config.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", config.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q (want sqlite, postgres or memory)", config.Database.Driver)
	}

	if _, err := log.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", config.LogLevel, err)
	}

	if config.Defaults.DebtTermMonths < 0 {
		return fmt.Errorf("defaults.debt_term_months must be positive, got %d", config.Defaults.DebtTermMonths)
	}

	return nil
}

// Validate checks a configuration built in code, e.g. by DefaultConfig.
func (c *MainConfig) Validate() error {
	return validateMainConfig(c)
}
