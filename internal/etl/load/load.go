// Package load persists processed tables into the warehouse with
// full-refresh semantics and verifies the result.
package load

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdw/salesdw/internal/etl/transform"
	"github.com/salesdw/salesdw/internal/logging"
	"github.com/salesdw/salesdw/internal/warehouse"
)

// Report summarizes a completed load: verified row counts per table.
type Report struct {
	Counts map[string]int64
}

// VerificationError indicates the store was unreachable or a table failed
// to materialize after the load.
type VerificationError struct {
	Table string
	Err   error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("load verification failed for %s: %v", e.Table, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// FromArtifacts reads the processed artifacts from dir and loads them.
func FromArtifacts(ctx context.Context, pool *pgxpool.Pool, dir string) (*Report, error) {
	tables, err := transform.Read(dir)
	if err != nil {
		return nil, err
	}
	return Load(ctx, pool, tables)
}

// Load writes the three tables into the warehouse. Each table is copied
// into a staging table first; staging tables replace the live ones inside
// a single transaction, so a failed load leaves the previous snapshot
// untouched and readers never see a partially-loaded state.
func Load(ctx context.Context, pool *pgxpool.Pool, tables *transform.Tables) (*Report, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range []struct {
		name string
		rows [][]any
	}{
		{warehouse.TableCustomers, customerRows(tables.Customers)},
		{warehouse.TableProducts, productRows(tables.Products)},
		{warehouse.TableSales, salesRows(tables.Sales)},
	} {
		if err := replaceTable(ctx, tx, t.name, t.rows); err != nil {
			return nil, err
		}
	}

	if err := warehouse.CreateSalesIndexes(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit load transaction: %w", err)
	}

	return verify(ctx, pool, tables)
}

// replaceTable copies rows into <name>_staging and swaps it in for the
// live table.
func replaceTable(ctx context.Context, tx pgx.Tx, name string, rows [][]any) error {
	staging := name + "_staging"

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("failed to drop stale staging table %s: %w", staging, err)
	}

	ddl, err := warehouse.CreateTableSQL(name, staging)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create staging table %s: %w", staging, err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{staging},
		warehouse.ColumnNames[name],
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy into %s: %w", staging, err)
	}

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("failed to drop previous %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, name)); err != nil {
		return fmt.Errorf("failed to swap %s into place: %w", staging, err)
	}

	logging.Debug().
		Str("table", name).
		Int64("rows", copied).
		Msg("Staged table swapped in")

	return nil
}

// verify issues a row-count query per live table and checks each table
// materialized with the expected number of rows.
func verify(ctx context.Context, pool *pgxpool.Pool, tables *transform.Tables) (*Report, error) {
	expected := map[string]int64{
		warehouse.TableCustomers: int64(len(tables.Customers)),
		warehouse.TableProducts:  int64(len(tables.Products)),
		warehouse.TableSales:     int64(len(tables.Sales)),
	}

	report := &Report{Counts: make(map[string]int64, len(warehouse.Tables))}
	for _, name := range warehouse.Tables {
		var count int64
		// name is an internal constant, never user input.
		err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count)
		if err != nil {
			return nil, &VerificationError{Table: name, Err: err}
		}
		if count != expected[name] {
			return nil, &VerificationError{
				Table: name,
				Err:   fmt.Errorf("row count %d, expected %d", count, expected[name]),
			}
		}
		report.Counts[name] = count

		logging.Info().
			Str("table", name).
			Int64("rows", count).
			Msg("Table loaded")
	}

	return report, nil
}

func customerRows(customers []transform.Customer) [][]any {
	rows := make([][]any, len(customers))
	for i, c := range customers {
		rows[i] = []any{c.ID, c.Name, c.Email, c.City, c.State, c.SignupDate}
	}
	return rows
}

func productRows(products []transform.Product) [][]any {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = []any{p.ID, p.Name, p.Category, p.Price}
	}
	return rows
}

func salesRows(sales []transform.Sale) [][]any {
	rows := make([][]any, len(sales))
	for i, s := range sales {
		rows[i] = []any{
			s.OrderID, s.OrderDate, s.OrderYear, s.OrderMonth,
			s.CustomerID, s.ProductID, s.Quantity, s.Amount,
		}
	}
	return rows
}
