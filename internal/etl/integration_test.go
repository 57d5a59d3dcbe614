package etl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdw/salesdw/internal/etl"
	"github.com/salesdw/salesdw/internal/etl/transform"
	"github.com/salesdw/salesdw/internal/testutil"
	"github.com/salesdw/salesdw/internal/warehouse"
)

// writeScenario writes a small known dataset: two customers, one product,
// two orders in January and February 2023.
func writeScenario(t *testing.T, rawDir string) {
	t.Helper()
	files := map[string]string{
		"customer.csv": "customer_id,customer_name,email,city,state,signup_date\n" +
			"1,Ada Lovelace,ada@example.com,Portland,OR,2022-03-01\n" +
			"2,Alan Turing,alan@example.com,Austin,TX,2022-06-15\n",
		"product.csv": "product_id,product_name,category,price\n" +
			"1,Widget,Tools,9.99\n",
		"order.csv": "order_id,order_date,customer_id,product_id,quantity,order_amount\n" +
			"1,2023-01-10,1,1,2,20.0\n" +
			"2,2023-02-05,2,1,1,15.0\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(rawDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func setupWarehouse(t *testing.T) (context.Context, *pgxpool.Pool, string, string) {
	t.Helper()
	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, testutil.GetDBNameFromConnStr(testConnStr))
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	rawDir := t.TempDir()
	processedDir := t.TempDir()
	writeScenario(t, rawDir)

	return context.Background(), pool, rawDir, processedDir
}

func TestPipelineAndQueries(t *testing.T) {
	ctx, pool, rawDir, processedDir := setupWarehouse(t)

	report, err := etl.Run(ctx, pool, rawDir, processedDir)
	if err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}
	if report.Counts[warehouse.TableCustomers] != 2 ||
		report.Counts[warehouse.TableProducts] != 1 ||
		report.Counts[warehouse.TableSales] != 2 {
		t.Fatalf("Unexpected load counts: %v", report.Counts)
	}

	engine := warehouse.NewEngine(pool)

	t.Run("unconstrained KPIs", func(t *testing.T) {
		kpis, err := engine.KPIs(ctx, warehouse.Filter{})
		if err != nil {
			t.Fatalf("KPIs failed: %v", err)
		}
		if kpis.TotalRevenue != 35.0 {
			t.Errorf("Expected revenue 35.0, got %f", kpis.TotalRevenue)
		}
		if kpis.TotalOrders != 2 {
			t.Errorf("Expected 2 orders, got %d", kpis.TotalOrders)
		}
		if kpis.TotalCustomers != 2 {
			t.Errorf("Expected 2 customers, got %d", kpis.TotalCustomers)
		}
		if kpis.AvgOrderValue != 17.5 {
			t.Errorf("Expected avg 17.5, got %f", kpis.AvgOrderValue)
		}
	})

	t.Run("monthly trend", func(t *testing.T) {
		trend, err := engine.MonthlyTrend(ctx, warehouse.Filter{})
		if err != nil {
			t.Fatalf("MonthlyTrend failed: %v", err)
		}
		if len(trend) != 2 {
			t.Fatalf("Expected 2 trend points, got %d", len(trend))
		}
		if trend[0].Label() != "2023-01" || trend[0].Revenue != 20.0 {
			t.Errorf("Unexpected first point: %s %f", trend[0].Label(), trend[0].Revenue)
		}
		if trend[1].Label() != "2023-02" || trend[1].Revenue != 15.0 {
			t.Errorf("Unexpected second point: %s %f", trend[1].Label(), trend[1].Revenue)
		}
	})

	t.Run("top products", func(t *testing.T) {
		products, err := engine.TopProducts(ctx, warehouse.Filter{})
		if err != nil {
			t.Fatalf("TopProducts failed: %v", err)
		}
		if len(products) != 1 {
			t.Fatalf("Expected 1 product, got %d", len(products))
		}
		if products[0].ProductName != "Widget" || products[0].Revenue != 35.0 {
			t.Errorf("Unexpected product row: %+v", products[0])
		}
	})

	t.Run("customer spend", func(t *testing.T) {
		customers, err := engine.CustomerSpend(ctx, warehouse.Filter{})
		if err != nil {
			t.Fatalf("CustomerSpend failed: %v", err)
		}
		if len(customers) != 2 {
			t.Fatalf("Expected 2 customers, got %d", len(customers))
		}
		// Descending by spend: Ada (20.0) before Alan (15.0).
		if customers[0].CustomerName != "Ada Lovelace" || customers[0].TotalSpent != 20.0 || customers[0].TotalOrders != 1 {
			t.Errorf("Unexpected top spender: %+v", customers[0])
		}
		if customers[1].CustomerName != "Alan Turing" || customers[1].TotalSpent != 15.0 {
			t.Errorf("Unexpected second spender: %+v", customers[1])
		}
	})

	t.Run("month filter", func(t *testing.T) {
		kpis, err := engine.KPIs(ctx, warehouse.Filter{Year: 2023, Month: 2})
		if err != nil {
			t.Fatalf("KPIs failed: %v", err)
		}
		if kpis.TotalRevenue != 15.0 || kpis.TotalOrders != 1 || kpis.TotalCustomers != 1 {
			t.Errorf("Unexpected filtered KPIs: %+v", kpis)
		}
	})

	t.Run("year filter matches all scenario rows", func(t *testing.T) {
		trend, err := engine.MonthlyTrend(ctx, warehouse.Filter{Year: 2023})
		if err != nil {
			t.Fatalf("MonthlyTrend failed: %v", err)
		}
		for _, p := range trend {
			if p.Year != 2023 {
				t.Errorf("Filtered trend contains year %d", p.Year)
			}
		}
		if len(trend) != 2 {
			t.Errorf("Expected 2 points for 2023, got %d", len(trend))
		}
	})

	t.Run("empty result safety", func(t *testing.T) {
		f := warehouse.Filter{Year: 1999}
		kpis, err := engine.KPIs(ctx, f)
		if err != nil {
			t.Fatalf("KPIs failed: %v", err)
		}
		if kpis.TotalRevenue != 0 || kpis.TotalOrders != 0 || kpis.TotalCustomers != 0 || kpis.AvgOrderValue != 0 {
			t.Errorf("Expected zero KPIs for empty set, got %+v", kpis)
		}

		report, err := engine.Summary(ctx, f)
		if err != nil {
			t.Fatalf("Summary failed: %v", err)
		}
		if len(report.MonthlyTrend) != 0 || len(report.TopProducts) != 0 || len(report.CustomerSpend) != 0 {
			t.Errorf("Expected empty result sets, got %+v", report)
		}
	})

	t.Run("observed periods", func(t *testing.T) {
		years, err := engine.Years(ctx)
		if err != nil {
			t.Fatalf("Years failed: %v", err)
		}
		if len(years) != 1 || years[0] != 2023 {
			t.Errorf("Expected years [2023], got %v", years)
		}
		months, err := engine.Months(ctx)
		if err != nil {
			t.Fatalf("Months failed: %v", err)
		}
		if len(months) != 2 || months[0] != 1 || months[1] != 2 {
			t.Errorf("Expected months [1 2], got %v", months)
		}
	})
}

func TestPipelineIdempotent(t *testing.T) {
	ctx, pool, rawDir, processedDir := setupWarehouse(t)

	first, err := etl.Run(ctx, pool, rawDir, processedDir)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := etl.Run(ctx, pool, rawDir, processedDir)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	for _, table := range warehouse.Tables {
		if first.Counts[table] != second.Counts[table] {
			t.Errorf("%s: counts differ between runs: %d vs %d",
				table, first.Counts[table], second.Counts[table])
		}
	}

	// Full replace, no accumulation.
	kpis, err := warehouse.NewEngine(pool).KPIs(ctx, warehouse.Filter{})
	if err != nil {
		t.Fatalf("KPIs failed: %v", err)
	}
	if kpis.TotalOrders != 2 || kpis.TotalRevenue != 35.0 {
		t.Errorf("Expected 2 orders / 35.0 revenue after double run, got %+v", kpis)
	}
}

func TestRejectedRunLeavesSnapshotUntouched(t *testing.T) {
	ctx, pool, rawDir, processedDir := setupWarehouse(t)

	if _, err := etl.Run(ctx, pool, rawDir, processedDir); err != nil {
		t.Fatalf("Initial run failed: %v", err)
	}

	// Introduce a duplicate customer id into the raw source.
	bad := "customer_id,customer_name,email,city,state,signup_date\n" +
		"1,Ada Lovelace,ada@example.com,Portland,OR,2022-03-01\n" +
		"1,Grace Hopper,grace@example.com,Arlington,VA,2022-09-09\n"
	if err := os.WriteFile(filepath.Join(rawDir, "customer.csv"), []byte(bad), 0o644); err != nil {
		t.Fatalf("Failed to rewrite customer.csv: %v", err)
	}

	_, err := etl.Run(ctx, pool, rawDir, processedDir)
	var dq *transform.DataQualityError
	if !errors.As(err, &dq) {
		t.Fatalf("Expected DataQualityError, got %T: %v", err, err)
	}

	// The previous good snapshot must still be queryable.
	kpis, err := warehouse.NewEngine(pool).KPIs(ctx, warehouse.Filter{})
	if err != nil {
		t.Fatalf("KPIs failed after rejected run: %v", err)
	}
	if kpis.TotalOrders != 2 || kpis.TotalRevenue != 35.0 {
		t.Errorf("Previous snapshot disturbed by rejected run: %+v", kpis)
	}
}

func TestEnsureLoadedBootstrap(t *testing.T) {
	ctx, pool, rawDir, processedDir := setupWarehouse(t)

	exists, err := warehouse.Exists(ctx, pool)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("Fresh database should have no warehouse tables")
	}

	if err := etl.EnsureLoaded(ctx, pool, rawDir, processedDir); err != nil {
		t.Fatalf("EnsureLoaded failed: %v", err)
	}

	exists, err = warehouse.Exists(ctx, pool)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("EnsureLoaded did not initialize the warehouse")
	}

	// Second call is a no-op on an initialized store.
	if err := etl.EnsureLoaded(ctx, pool, rawDir, processedDir); err != nil {
		t.Fatalf("EnsureLoaded on initialized store failed: %v", err)
	}
}

func TestRawRevenueMatchesKPI(t *testing.T) {
	ctx, pool, rawDir, processedDir := setupWarehouse(t)

	if _, err := etl.Run(ctx, pool, rawDir, processedDir); err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}

	// Sum order_amount straight from the processed artifact and compare to
	// the unconstrained total-revenue KPI.
	tables, err := transform.Read(processedDir)
	if err != nil {
		t.Fatalf("Failed to read artifacts: %v", err)
	}
	var rawSum float64
	for _, s := range tables.Sales {
		rawSum += s.Amount
	}

	kpis, err := warehouse.NewEngine(pool).KPIs(ctx, warehouse.Filter{})
	if err != nil {
		t.Fatalf("KPIs failed: %v", err)
	}
	if kpis.TotalRevenue != rawSum {
		t.Errorf("KPI revenue %f != raw sum %f", kpis.TotalRevenue, rawSum)
	}
}
