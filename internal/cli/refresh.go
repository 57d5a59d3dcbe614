package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesdw/salesdw/internal/db"
	"github.com/salesdw/salesdw/internal/etl"
	"github.com/salesdw/salesdw/internal/warehouse"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the full ETL pipeline",
	Long: `Run the extract, transform, and load stages end to end. The raw
sources are validated, cast, quality-checked, written as processed
artifacts, and loaded into the warehouse, replacing the previous snapshot.

Any validation or load failure aborts the run and leaves the previous
warehouse snapshot untouched.

Example:
  salesdw refresh --connection "postgres://..." --raw-dir data/raw`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	report, err := etl.Run(ctx, pool, cfg.Data.RawDir, cfg.Data.ProcessedDir)
	if err != nil {
		return err
	}

	for _, table := range warehouse.Tables {
		cmd.Printf("%s: %d rows\n", table, report.Counts[table])
	}
	return nil
}
