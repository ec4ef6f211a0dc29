package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "limits",
	Short: "Storage limits exporter",
	Long: `Storage limits exporter

Derives the daily storage and transport capacity limits of every gas shipper
from the contract, limit and balance tables, and publishes them as CSV, XML
or XLSX documents to S3, GCS or a local directory.

Usage:
  go run ./cmd/limits [command]

Examples:
  go run ./cmd/limits export --from 2024-03-15
  go run ./cmd/limits export --from 2024-03-01 --to 2024-03-31 --grouping period --dry-run
  go run ./cmd/limits scheduler start
  go run ./cmd/limits api --with-scheduler
  go run ./cmd/limits test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging (overrides LOG_LEVEL)")
}
