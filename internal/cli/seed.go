package cli

import (
	"github.com/spf13/cobra"

	"github.com/salesdw/salesdw/internal/datagen"
)

var (
	seedCustomers  int
	seedProducts   int
	seedOrders     int
	seedRandomSeed uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate raw source CSVs for the pipeline",
	Long: `Generate customer, product, and order CSV files in the raw data
directory. Orders reference the generated customers and products, so the
seeded files pass the pipeline's quality gate.

Example:
  salesdw seed --customers 500 --products 80 --orders 10000`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 0,
		"number of customers to generate")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of products to generate")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 0,
		"number of orders to generate")
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedCustomers > 0 {
		cfg.Seed.Customers = seedCustomers
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedOrders > 0 {
		cfg.Seed.Orders = seedOrders
	}
	if seedRandomSeed > 0 {
		cfg.Seed.RandomSeed = seedRandomSeed
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	seeder := datagen.NewSeeder()
	if cfg.Seed.RandomSeed > 0 {
		seeder = datagen.NewSeederWithSeed(cfg.Seed.RandomSeed)
	}

	return seeder.Seed(cfg.Data.RawDir, datagen.Counts{
		Customers: cfg.Seed.Customers,
		Products:  cfg.Seed.Products,
		Orders:    cfg.Seed.Orders,
	})
}
