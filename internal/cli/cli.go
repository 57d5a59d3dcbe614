// Package cli implements the command-line interface for salesdw.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/salesdw/salesdw/internal/config"
	"github.com/salesdw/salesdw/internal/logging"
	"github.com/salesdw/salesdw/pkg/version"
)

var (
	// Global flags
	cfgFile      string
	connection   string
	rawDir       string
	processedDir string
	logLevel     string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "salesdw",
		Short: "Sales data warehouse ETL pipeline and KPI queries",
		Long: `salesdw turns flat transactional records (customers, products, orders)
into a small analytical warehouse organized as a star schema, then serves
aggregate business metrics through filterable queries.

The pipeline is a full-refresh batch job: each run replaces the entire
warehouse state. Raw CSV sources are validated against exact expected
schemas, cast and quality-checked, written as processed artifacts, and
loaded into PostgreSQL with staging-then-swap semantics.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./salesdw.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&rawDir, "raw-dir", "",
		"directory holding raw source CSVs")
	rootCmd.PersistentFlags().StringVar(&processedDir, "processed-dir", "",
		"directory for processed artifacts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(queryCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if rawDir != "" {
		cfg.Data.RawDir = rawDir
	}
	if processedDir != "" {
		cfg.Data.ProcessedDir = processedDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
