package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is an interface that *pgxpool.Pool, *pgx.Conn, and pgx.Tx satisfy.
// The engine issues read-only aggregates and never mutates the store.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Engine executes aggregate queries over the star schema.
type Engine struct {
	db DB
}

// NewEngine creates a query engine over the given database handle.
func NewEngine(db DB) *Engine {
	return &Engine{db: db}
}

// KPIReport holds the four scalar metrics for a filtered fact set.
// All values are zero (never null) when the set is empty.
type KPIReport struct {
	TotalRevenue   float64
	TotalOrders    int64
	TotalCustomers int64
	AvgOrderValue  float64
}

// TrendPoint is one (year, month) revenue bucket of the monthly trend.
type TrendPoint struct {
	Year    int
	Month   int
	Revenue float64
}

// Label renders the bucket as a zero-padded YYYY-MM chart label.
func (p TrendPoint) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ProductRevenue is one row of the top-products ranking.
type ProductRevenue struct {
	ProductName string
	Revenue     float64
}

// CustomerSpend is one row of the customer spend ranking.
type CustomerSpend struct {
	CustomerName string
	TotalSpent   float64
	TotalOrders  int64
}

// Report bundles every query-layer output for one filter selection.
type Report struct {
	Filter        Filter
	KPIs          KPIReport
	MonthlyTrend  []TrendPoint
	TopProducts   []ProductRevenue
	CustomerSpend []CustomerSpend
}

// KPIs computes the four scalar metrics over the filtered fact set.
func (e *Engine) KPIs(ctx context.Context, f Filter) (KPIReport, error) {
	if err := f.Validate(); err != nil {
		return KPIReport{}, err
	}
	where, args := f.where("")

	var r KPIReport
	err := e.db.QueryRow(ctx, `
        SELECT
            COALESCE(SUM(order_amount), 0) AS revenue,
            COUNT(*) AS orders,
            COUNT(DISTINCT customer_id) AS customers,
            COALESCE(AVG(order_amount), 0) AS aov
        FROM fact_sales`+where, args...,
	).Scan(&r.TotalRevenue, &r.TotalOrders, &r.TotalCustomers, &r.AvgOrderValue)
	if err != nil {
		return KPIReport{}, fmt.Errorf("kpi query failed: %w", err)
	}
	return r, nil
}

// MonthlyTrend sums revenue per (year, month), ordered ascending by period.
func (e *Engine) MonthlyTrend(ctx context.Context, f Filter) ([]TrendPoint, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	where, args := f.where("")

	rows, err := e.db.Query(ctx, `
        SELECT
            order_year,
            order_month,
            SUM(order_amount) AS revenue
        FROM fact_sales`+where+`
        GROUP BY order_year, order_month
        ORDER BY order_year, order_month`, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly trend query failed: %w", err)
	}
	defer rows.Close()

	var trend []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.Revenue); err != nil {
			return nil, err
		}
		trend = append(trend, p)
	}
	return trend, rows.Err()
}

// TopProducts ranks products by filtered revenue, descending. Ties break
// on product name so the ordering is deterministic.
func (e *Engine) TopProducts(ctx context.Context, f Filter) ([]ProductRevenue, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	where, args := f.where("f.")

	rows, err := e.db.Query(ctx, `
        SELECT
            p.product_name,
            SUM(f.order_amount) AS revenue
        FROM fact_sales f
        JOIN dim_products p ON f.product_id = p.product_id`+where+`
        GROUP BY p.product_name
        ORDER BY revenue DESC, p.product_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("top products query failed: %w", err)
	}
	defer rows.Close()

	var ranking []ProductRevenue
	for rows.Next() {
		var r ProductRevenue
		if err := rows.Scan(&r.ProductName, &r.Revenue); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

// CustomerSpend ranks customers by filtered spend, descending, with order
// counts. Ties break on customer name.
func (e *Engine) CustomerSpend(ctx context.Context, f Filter) ([]CustomerSpend, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	where, args := f.where("f.")

	rows, err := e.db.Query(ctx, `
        SELECT
            c.customer_name,
            SUM(f.order_amount) AS total_spent,
            COUNT(f.order_id) AS total_orders
        FROM fact_sales f
        JOIN dim_customers c ON f.customer_id = c.customer_id`+where+`
        GROUP BY c.customer_name
        ORDER BY total_spent DESC, c.customer_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("customer spend query failed: %w", err)
	}
	defer rows.Close()

	var ranking []CustomerSpend
	for rows.Next() {
		var r CustomerSpend
		if err := rows.Scan(&r.CustomerName, &r.TotalSpent, &r.TotalOrders); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

// Years returns the distinct order years observed in the fact table,
// ascending. Used to populate filter selections.
func (e *Engine) Years(ctx context.Context) ([]int, error) {
	return e.distinctPeriods(ctx, "order_year")
}

// Months returns the distinct order months observed in the fact table,
// ascending.
func (e *Engine) Months(ctx context.Context) ([]int, error) {
	return e.distinctPeriods(ctx, "order_month")
}

func (e *Engine) distinctPeriods(ctx context.Context, column string) ([]int, error) {
	// column is one of two internal constants, never user input.
	rows, err := e.db.Query(ctx, fmt.Sprintf(
		"SELECT DISTINCT %s FROM fact_sales ORDER BY %s", column, column))
	if err != nil {
		return nil, fmt.Errorf("distinct %s query failed: %w", column, err)
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Summary runs every query for one filter selection and bundles the results.
func (e *Engine) Summary(ctx context.Context, f Filter) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	kpis, err := e.KPIs(ctx, f)
	if err != nil {
		return nil, err
	}
	trend, err := e.MonthlyTrend(ctx, f)
	if err != nil {
		return nil, err
	}
	products, err := e.TopProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	customers, err := e.CustomerSpend(ctx, f)
	if err != nil {
		return nil, err
	}

	return &Report{
		Filter:        f,
		KPIs:          kpis,
		MonthlyTrend:  trend,
		TopProducts:   products,
		CustomerSpend: customers,
	}, nil
}
