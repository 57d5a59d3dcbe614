// Package etl composes the extract, transform, and load stages into the
// full-refresh pipeline.
package etl

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdw/salesdw/internal/etl/extract"
	"github.com/salesdw/salesdw/internal/etl/load"
	"github.com/salesdw/salesdw/internal/etl/transform"
	"github.com/salesdw/salesdw/internal/logging"
	"github.com/salesdw/salesdw/internal/warehouse"
)

// Run executes the pipeline end to end: raw sources are extracted from
// rawDir, transformed into the star schema, written as artifacts under
// processedDir, and loaded into the warehouse. Every stage failure is
// fatal to the run; the previous warehouse snapshot survives any abort.
func Run(ctx context.Context, pool *pgxpool.Pool, rawDir, processedDir string) (*load.Report, error) {
	logging.Info().Str("raw_dir", rawDir).Msg("Extracting raw sources")
	customers, products, orders, err := extract.LoadAll(rawDir)
	if err != nil {
		return nil, err
	}

	tables, err := transform.Transform(customers, products, orders)
	if err != nil {
		return nil, err
	}

	if err := tables.Write(processedDir); err != nil {
		return nil, err
	}
	logging.Info().Str("processed_dir", processedDir).Msg("Artifacts written")

	// The artifacts, not the in-memory tables, are the hand-off to the
	// loader; loading from them keeps the two stages separable.
	report, err := load.FromArtifacts(ctx, pool, processedDir)
	if err != nil {
		return nil, err
	}

	logging.Info().Msg("Pipeline run complete")
	return report, nil
}

// EnsureLoaded runs the full pipeline if the warehouse tables are absent.
// The caller blocks until the pipeline completes, so no query ever sees an
// uninitialized store.
func EnsureLoaded(ctx context.Context, pool *pgxpool.Pool, rawDir, processedDir string) error {
	exists, err := warehouse.Exists(ctx, pool)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logging.Info().Msg("Warehouse not initialized; running pipeline")
	_, err = Run(ctx, pool, rawDir, processedDir)
	return err
}
