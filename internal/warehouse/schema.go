// Package warehouse defines the star schema and the aggregate query engine
// that serves KPIs over it.
package warehouse

import (
	"context"
	"fmt"
)

// Warehouse table names.
const (
	TableCustomers = "dim_customers"
	TableProducts  = "dim_products"
	TableSales     = "fact_sales"
)

// Tables lists the warehouse tables in load order.
var Tables = []string{TableCustomers, TableProducts, TableSales}

// Column definitions per table. The loader instantiates these as staging
// tables and swaps them in, so the DDL is parameterized on the table name.
var tableColumns = map[string]string{
	TableCustomers: `
    customer_id   INTEGER PRIMARY KEY,
    customer_name TEXT NOT NULL,
    email         TEXT NOT NULL,
    city          TEXT NOT NULL,
    state         TEXT NOT NULL,
    signup_date   DATE NOT NULL`,
	TableProducts: `
    product_id   INTEGER PRIMARY KEY,
    product_name TEXT NOT NULL,
    category     TEXT NOT NULL,
    price        NUMERIC(12,2) NOT NULL`,
	TableSales: `
    order_id     INTEGER PRIMARY KEY,
    order_date   DATE NOT NULL,
    order_year   INTEGER NOT NULL,
    order_month  INTEGER NOT NULL,
    customer_id  INTEGER NOT NULL,
    product_id   INTEGER NOT NULL,
    quantity     INTEGER NOT NULL,
    order_amount NUMERIC(12,2) NOT NULL`,
}

// ColumnNames per table, in artifact and COPY order.
var ColumnNames = map[string][]string{
	TableCustomers: {"customer_id", "customer_name", "email", "city", "state", "signup_date"},
	TableProducts:  {"product_id", "product_name", "category", "price"},
	TableSales:     {"order_id", "order_date", "order_year", "order_month", "customer_id", "product_id", "quantity", "order_amount"},
}

// Indexes created on the live fact table for the aggregate queries.
var salesIndexSQL = []string{
	"CREATE INDEX IF NOT EXISTS idx_fact_sales_period ON fact_sales(order_year, order_month)",
	"CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_id)",
	"CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_id)",
}

// CreateTableSQL returns DDL creating the named warehouse table under an
// arbitrary physical name (used for staging tables).
func CreateTableSQL(table, physicalName string) (string, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return "", fmt.Errorf("unknown warehouse table: %s", table)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s\n)", physicalName, columns), nil
}

// CreateSalesIndexes creates the fact table indexes.
func CreateSalesIndexes(ctx context.Context, db DB) error {
	for _, stmt := range salesIndexSQL {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Exists reports whether the warehouse has been loaded, keyed on the fact
// table's presence. The bootstrap barrier uses this before serving queries.
func Exists(ctx context.Context, db DB) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, TableSales).Scan(&exists)
	return exists, err
}
