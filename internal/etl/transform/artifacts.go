package transform

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Artifact file names. These are the hand-off contract to the loader, which
// may run in a separate process from the transformer.
const (
	ArtifactCustomers = "dim_customers.csv"
	ArtifactProducts  = "dim_products.csv"
	ArtifactSales     = "fact_sales.csv"
)

var (
	customerHeader = []string{"customer_id", "customer_name", "email", "city", "state", "signup_date"}
	productHeader  = []string{"product_id", "product_name", "category", "price"}
	salesHeader    = []string{"order_id", "order_date", "order_year", "order_month", "customer_id", "product_id", "quantity", "order_amount"}
)

// Write emits the three tables as order-preserving CSV artifacts under dir.
func (t *Tables) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create processed dir: %w", err)
	}

	customers := make([][]string, len(t.Customers))
	for i, c := range t.Customers {
		customers[i] = []string{
			strconv.Itoa(c.ID), c.Name, c.Email, c.City, c.State,
			c.SignupDate.Format(DateLayout),
		}
	}
	if err := writeArtifact(dir, ArtifactCustomers, customerHeader, customers); err != nil {
		return err
	}

	products := make([][]string, len(t.Products))
	for i, p := range t.Products {
		products[i] = []string{
			strconv.Itoa(p.ID), p.Name, p.Category, formatFloat(p.Price),
		}
	}
	if err := writeArtifact(dir, ArtifactProducts, productHeader, products); err != nil {
		return err
	}

	sales := make([][]string, len(t.Sales))
	for i, s := range t.Sales {
		sales[i] = []string{
			strconv.Itoa(s.OrderID),
			s.OrderDate.Format(DateLayout),
			strconv.Itoa(s.OrderYear),
			strconv.Itoa(s.OrderMonth),
			strconv.Itoa(s.CustomerID),
			strconv.Itoa(s.ProductID),
			strconv.Itoa(s.Quantity),
			formatFloat(s.Amount),
		}
	}
	return writeArtifact(dir, ArtifactSales, salesHeader, sales)
}

// Read loads the three artifacts back from dir.
func Read(dir string) (*Tables, error) {
	t := &Tables{}

	rows, err := readArtifact(dir, ArtifactCustomers, customerHeader)
	if err != nil {
		return nil, err
	}
	t.Customers = make([]Customer, len(rows))
	for i, row := range rows {
		c := Customer{Name: row[1], Email: row[2], City: row[3], State: row[4]}
		if c.ID, err = artifactInt(ArtifactCustomers, i, row[0]); err != nil {
			return nil, err
		}
		if c.SignupDate, err = artifactDate(ArtifactCustomers, i, row[5]); err != nil {
			return nil, err
		}
		t.Customers[i] = c
	}

	rows, err = readArtifact(dir, ArtifactProducts, productHeader)
	if err != nil {
		return nil, err
	}
	t.Products = make([]Product, len(rows))
	for i, row := range rows {
		p := Product{Name: row[1], Category: row[2]}
		if p.ID, err = artifactInt(ArtifactProducts, i, row[0]); err != nil {
			return nil, err
		}
		if p.Price, err = artifactFloat(ArtifactProducts, i, row[3]); err != nil {
			return nil, err
		}
		t.Products[i] = p
	}

	rows, err = readArtifact(dir, ArtifactSales, salesHeader)
	if err != nil {
		return nil, err
	}
	t.Sales = make([]Sale, len(rows))
	for i, row := range rows {
		var s Sale
		if s.OrderID, err = artifactInt(ArtifactSales, i, row[0]); err != nil {
			return nil, err
		}
		if s.OrderDate, err = artifactDate(ArtifactSales, i, row[1]); err != nil {
			return nil, err
		}
		if s.OrderYear, err = artifactInt(ArtifactSales, i, row[2]); err != nil {
			return nil, err
		}
		if s.OrderMonth, err = artifactInt(ArtifactSales, i, row[3]); err != nil {
			return nil, err
		}
		if s.CustomerID, err = artifactInt(ArtifactSales, i, row[4]); err != nil {
			return nil, err
		}
		if s.ProductID, err = artifactInt(ArtifactSales, i, row[5]); err != nil {
			return nil, err
		}
		if s.Quantity, err = artifactInt(ArtifactSales, i, row[6]); err != nil {
			return nil, err
		}
		if s.Amount, err = artifactFloat(ArtifactSales, i, row[7]); err != nil {
			return nil, err
		}
		t.Sales[i] = s
	}

	return t, nil
}

func writeArtifact(dir, name string, header []string, rows [][]string) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return f.Close()
}

func readArtifact(dir, name string, wantHeader []string) ([][]string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", name, err)
	}
	if len(header) != len(wantHeader) {
		return nil, fmt.Errorf("artifact %s has %d columns, want %d", name, len(header), len(wantHeader))
	}
	for i := range header {
		if header[i] != wantHeader[i] {
			return nil, fmt.Errorf("artifact %s column %d is %q, want %q", name, i, header[i], wantHeader[i])
		}
	}
	return reader.ReadAll()
}

func artifactInt(name string, row int, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("artifact %s row %d: %w", name, row+2, err)
	}
	return v, nil
}

func artifactFloat(name string, row int, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("artifact %s row %d: %w", name, row+2, err)
	}
	return v, nil
}

func artifactDate(name string, row int, value string) (time.Time, error) {
	v, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("artifact %s row %d: %w", name, row+2, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
