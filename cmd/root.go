// =============================================================================
// catatkeu - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (catatkeu)
//   ├── importCmd (catatkeu import)
//   ├── summaryCmd (catatkeu summary)
//   ├── watchCmd (catatkeu watch)
//   └── versionCmd (catatkeu version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/catatkeu/catatkeu/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given. Unlike an explicit
// path, it may be missing.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is loaded by the root command before any subcommand runs.
var appConfig *config.MainConfig

// logger writes to stderr and, when configured, to the log file.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "catatkeu"})

// logFile is closed when the command finishes.
var logFile *os.File

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "catatkeu",
	Short: "catatkeu - import personal finance exports into a database",
	Long: `catatkeu imports the workbook and text exports of a personal finance
tracker (debts, receivables, income, expenses and vehicle maintenance) into a
sqlite or postgres database.

Key Features:
  - Multi-sheet workbook import (.xlsx and legacy .xls)
  - Text export import
  - Payments linked to their debts and receivables by legacy ID or by name
  - Inbox directory with archive-on-success and run logs
  - Watch mode importing exports as they are dropped into the inbox
  - Dashboard summary of the stored records

Example Usage:
  catatkeu import backup.xlsx            # Import one workbook
  catatkeu import --inbox --archive      # Import everything in the inbox
  catatkeu import --dry-run backup.txt   # Parse without touching the database
  catatkeu watch --archive               # Import new inbox files until Ctrl+C
  catatkeu summary                       # Show dashboard totals`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},

	// Without a subcommand, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging (shows skipped rows)",
	)
}

// initApp loads the configuration and configures the logger.
func initApp(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	appConfig = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = log.DebugLevel
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}

	logger = log.NewWithOptions(out, log.Options{
		Prefix:          "catatkeu",
		Level:           level,
		ReportTimestamp: true,
	})
	return nil
}

// loadConfig reads cfgFile. A missing default file falls back to the
// built-in defaults; a missing explicit file is an error.
func loadConfig(explicit bool) (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err == nil {
		return cfg, nil
	}

	if !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg = config.DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	return nil, fmt.Errorf("failed to load config: %w", err)
}
