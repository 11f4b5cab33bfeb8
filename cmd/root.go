// =============================================================================
// Load Export - Root Command
// =============================================================================
//
// COBRA CLI STRUCTURE:
//   rootCmd (loadexport)
//   ├── exportCmd  (loadexport export iif|qbo|all)
//   ├── previewCmd (loadexport preview)
//   ├── serveCmd   (loadexport serve)
//   ├── initdbCmd  (loadexport initdb)
//   └── versionCmd (loadexport version)
//
// The root command owns the global flags. Subcommands that touch data call
// setup, which loads the configuration and attaches a logger to the command
// context.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging regardless of log_level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "loadexport",
	Short: "Load Export - turn confirmed disposal loads into accounting import files",
	Long: `loadexport reads confirmed C&D disposal loads from the collection client's
local cache, falling back to the remote load service when the cache has none,
and writes them as QuickBooks Desktop IIF or QuickBooks Online CSV invoices.

Example Usage:
  loadexport export iif --project alpha   # One project, IIF
  loadexport export all --ship            # Both formats, every project, delivered
  loadexport preview --xlsx summary.xlsx  # Totals only, plus a workbook
  loadexport serve                        # HTTP API`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// setup loads the configuration and returns a context carrying the logger.
func setup(cmd *cobra.Command) (*config.MainConfig, context.Context, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(level)
	log.Debug().Str("config", cfgFile).Str("source", cfg.Source.Kind).Msg("configuration loaded")

	return cfg, logger.WithContext(cmd.Context(), log), nil
}
