package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesdw/salesdw/internal/db"
	"github.com/salesdw/salesdw/internal/etl"
	"github.com/salesdw/salesdw/internal/warehouse"
)

var (
	queryYear  string
	queryMonth string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query KPIs and rankings from the warehouse",
	Long: `Run the aggregate queries over the warehouse and print KPIs, the
monthly revenue trend, the top products by revenue, and customer spend.

Year and month filters accept a concrete value or "all". If the warehouse
has not been loaded yet, the full pipeline runs first.

Example:
  salesdw query --year 2023 --month all`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryYear, "year", "all",
		"filter by order year (or \"all\")")
	queryCmd.Flags().StringVar(&queryMonth, "month", "all",
		"filter by order month 1-12 (or \"all\")")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	filter, err := warehouse.ParseFilter(queryYear, queryMonth)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	// Bootstrap: load the warehouse if this is the first query.
	if err := etl.EnsureLoaded(ctx, pool, cfg.Data.RawDir, cfg.Data.ProcessedDir); err != nil {
		return err
	}

	report, err := warehouse.NewEngine(pool).Summary(ctx, filter)
	if err != nil {
		return err
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *warehouse.Report) {
	cmd.Printf("Filter: %s\n\n", report.Filter)

	cmd.Println("KPIs")
	cmd.Printf("  Total revenue:    %.2f\n", report.KPIs.TotalRevenue)
	cmd.Printf("  Total orders:     %d\n", report.KPIs.TotalOrders)
	cmd.Printf("  Total customers:  %d\n", report.KPIs.TotalCustomers)
	cmd.Printf("  Avg order value:  %.2f\n", report.KPIs.AvgOrderValue)

	cmd.Println("\nMonthly revenue trend")
	for _, p := range report.MonthlyTrend {
		cmd.Printf("  %s  %12.2f\n", p.Label(), p.Revenue)
	}

	cmd.Println("\nTop products by revenue")
	for _, p := range report.TopProducts {
		cmd.Printf("  %-40s %12.2f\n", p.ProductName, p.Revenue)
	}

	cmd.Println("\nCustomer spend")
	for _, c := range report.CustomerSpend {
		cmd.Printf("  %-40s %12.2f  (%d orders)\n", c.CustomerName, c.TotalSpent, c.TotalOrders)
	}
}
