package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/salesdw/salesdw/internal/etl/extract"
	"github.com/salesdw/salesdw/internal/logging"
)

// Counts controls how many rows of each entity the seeder generates.
type Counts struct {
	Customers int
	Products  int
	Orders    int
}

// Seeder generates raw source CSVs that the pipeline can consume.
type Seeder struct {
	faker *Faker
}

// NewSeeder creates a seeder with a random seed.
func NewSeeder() *Seeder {
	return &Seeder{faker: NewFaker()}
}

// NewSeederWithSeed creates a reproducible seeder.
func NewSeederWithSeed(seed uint64) *Seeder {
	return &Seeder{faker: NewFakerWithSeed(seed)}
}

// Seed writes customer.csv, product.csv, and order.csv into rawDir. Orders
// reference generated customer and product ids, and order amounts are
// derived from product prices so aggregates look plausible.
func (s *Seeder) Seed(rawDir string, counts Counts) error {
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return fmt.Errorf("failed to create raw dir: %w", err)
	}

	signupStart := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	orderStart := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	orderEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	customers := make([][]string, counts.Customers)
	for i := range customers {
		customers[i] = []string{
			strconv.Itoa(i + 1),
			s.faker.Name(),
			s.faker.Email(),
			s.faker.City(),
			s.faker.State(),
			s.faker.DateRange(signupStart, orderStart).Format("2006-01-02"),
		}
	}
	if err := s.writeSource(rawDir, extract.SourceCustomers, customers); err != nil {
		return err
	}

	prices := make([]float64, counts.Products)
	products := make([][]string, counts.Products)
	for i := range products {
		prices[i] = s.faker.Price(5, 500)
		products[i] = []string{
			strconv.Itoa(i + 1),
			s.faker.ProductName(),
			s.faker.ProductCategory(),
			strconv.FormatFloat(prices[i], 'f', 2, 64),
		}
	}
	if err := s.writeSource(rawDir, extract.SourceProducts, products); err != nil {
		return err
	}

	orders := make([][]string, counts.Orders)
	for i := range orders {
		productID := s.faker.Int(1, counts.Products)
		quantity := s.faker.Int(1, 5)
		amount := float64(quantity) * prices[productID-1]
		orders[i] = []string{
			strconv.Itoa(i + 1),
			s.faker.DateRange(orderStart, orderEnd).Format("2006-01-02"),
			strconv.Itoa(s.faker.Int(1, counts.Customers)),
			strconv.Itoa(productID),
			strconv.Itoa(quantity),
			strconv.FormatFloat(amount, 'f', 2, 64),
		}
	}
	return s.writeSource(rawDir, extract.SourceOrders, orders)
}

func (s *Seeder) writeSource(rawDir, key string, rows [][]string) error {
	src := extract.Sources[key]
	path := filepath.Join(rawDir, src.File)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(src.Columns); err != nil {
		return fmt.Errorf("failed to write %s header: %w", src.File, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", src.File, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", src.File, err)
	}

	logging.Info().
		Str("source", key).
		Int("rows", len(rows)).
		Msg("Seeded raw source")

	return f.Close()
}
