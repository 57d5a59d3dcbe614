// Package extract reads raw tabular sources and enforces their declared schemas.
package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/salesdw/salesdw/internal/logging"
)

// Source keys for the three raw inputs.
const (
	SourceCustomers = "customers"
	SourceProducts  = "products"
	SourceOrders    = "orders"
)

// Source describes a raw input: its file name and the exact, ordered
// column set it must carry.
type Source struct {
	File    string
	Columns []string
}

// Sources is the registry of declared raw inputs.
var Sources = map[string]Source{
	SourceCustomers: {
		File:    "customer.csv",
		Columns: []string{"customer_id", "customer_name", "email", "city", "state", "signup_date"},
	},
	SourceProducts: {
		File:    "product.csv",
		Columns: []string{"product_id", "product_name", "category", "price"},
	},
	SourceOrders: {
		File:    "order.csv",
		Columns: []string{"order_id", "order_date", "customer_id", "product_id", "quantity", "order_amount"},
	},
}

// RawTable holds an extracted source: its header exactly as declared and
// all data rows in file order.
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Column returns the index of the named column, or -1 if absent.
func (t *RawTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MissingSourceError indicates a declared raw source file does not exist.
type MissingSourceError struct {
	Key  string
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("raw source %q not found at %s", e.Key, e.Path)
}

// SchemaMismatchError indicates a raw source's columns do not exactly
// match the declared, ordered column set.
type SchemaMismatchError struct {
	Key      string
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %q: expected [%s], got [%s]",
		e.Key, strings.Join(e.Expected, ", "), strings.Join(e.Got, ", "))
}

// Load reads the named source from rawDir, verifies its header against the
// declared column set (order-sensitive), and returns its rows.
func Load(rawDir, key string) (*RawTable, error) {
	src, ok := Sources[key]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", key)
	}

	path := filepath.Join(rawDir, src.File)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingSourceError{Key: key, Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !equalColumns(header, src.Columns) {
		return nil, &SchemaMismatchError{Key: key, Expected: src.Columns, Got: header}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", path, err)
	}

	logging.Info().
		Str("source", key).
		Int("rows", len(rows)).
		Msg("Loaded raw source")

	return &RawTable{Name: key, Columns: src.Columns, Rows: rows}, nil
}

// LoadAll loads all three raw sources from rawDir.
func LoadAll(rawDir string) (customers, products, orders *RawTable, err error) {
	if customers, err = Load(rawDir, SourceCustomers); err != nil {
		return nil, nil, nil, err
	}
	if products, err = Load(rawDir, SourceProducts); err != nil {
		return nil, nil, nil, err
	}
	if orders, err = Load(rawDir, SourceOrders); err != nil {
		return nil, nil, nil, err
	}
	return customers, products, orders, nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
