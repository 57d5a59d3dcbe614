package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/salesdw/salesdw/internal/etl/extract"
	"github.com/salesdw/salesdw/internal/logging"
)

// Transform casts the raw tables, runs the data-quality gate, and builds the
// dimension and fact tables. Any coercion failure or quality violation is
// fatal: either all three tables are produced or none are.
func Transform(rawCustomers, rawProducts, rawOrders *extract.RawTable) (*Tables, error) {
	customers, err := coerceCustomers(rawCustomers)
	if err != nil {
		return nil, err
	}
	products, err := coerceProducts(rawProducts)
	if err != nil {
		return nil, err
	}
	orders, err := coerceOrders(rawOrders)
	if err != nil {
		return nil, err
	}

	if violations := validate(customers, products, orders); len(violations) > 0 {
		return nil, &DataQualityError{Violations: violations}
	}

	// Dimensions are straight copies of the validated inputs. The fact table
	// carries derived year/month and the fixed measure/key column set only;
	// dimension attributes are not denormalized into it.
	sales := make([]Sale, len(orders))
	for i, o := range orders {
		o.OrderYear = o.OrderDate.Year()
		o.OrderMonth = int(o.OrderDate.Month())
		sales[i] = o
	}

	logging.Info().
		Int("customers", len(customers)).
		Int("products", len(products)).
		Int("sales", len(sales)).
		Msg("Transformation complete")

	return &Tables{Customers: customers, Products: products, Sales: sales}, nil
}

func coerceCustomers(raw *extract.RawTable) ([]Customer, error) {
	out := make([]Customer, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		id, err := parseInt(raw, i, "customer_id", row[0])
		if err != nil {
			return nil, err
		}
		signup, err := parseDate(raw, i, "signup_date", row[5])
		if err != nil {
			return nil, err
		}
		out = append(out, Customer{
			ID:         id,
			Name:       row[1],
			Email:      row[2],
			City:       row[3],
			State:      row[4],
			SignupDate: signup,
		})
	}
	return out, nil
}

func coerceProducts(raw *extract.RawTable) ([]Product, error) {
	out := make([]Product, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		id, err := parseInt(raw, i, "product_id", row[0])
		if err != nil {
			return nil, err
		}
		price, err := parseFloat(raw, i, "price", row[3])
		if err != nil {
			return nil, err
		}
		out = append(out, Product{
			ID:       id,
			Name:     row[1],
			Category: row[2],
			Price:    price,
		})
	}
	return out, nil
}

func coerceOrders(raw *extract.RawTable) ([]Sale, error) {
	out := make([]Sale, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		orderID, err := parseInt(raw, i, "order_id", row[0])
		if err != nil {
			return nil, err
		}
		orderDate, err := parseDate(raw, i, "order_date", row[1])
		if err != nil {
			return nil, err
		}
		customerID, err := parseInt(raw, i, "customer_id", row[2])
		if err != nil {
			return nil, err
		}
		productID, err := parseInt(raw, i, "product_id", row[3])
		if err != nil {
			return nil, err
		}
		quantity, err := parseInt(raw, i, "quantity", row[4])
		if err != nil {
			return nil, err
		}
		amount, err := parseFloat(raw, i, "order_amount", row[5])
		if err != nil {
			return nil, err
		}
		out = append(out, Sale{
			OrderID:    orderID,
			OrderDate:  orderDate,
			CustomerID: customerID,
			ProductID:  productID,
			Quantity:   quantity,
			Amount:     amount,
		})
	}
	return out, nil
}

func parseInt(raw *extract.RawTable, row int, column, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, coercionError(raw, row, column, value, "integer")
	}
	return v, nil
}

func parseFloat(raw *extract.RawTable, row int, column, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, coercionError(raw, row, column, value, "decimal")
	}
	return v, nil
}

func parseDate(raw *extract.RawTable, row int, column, value string) (time.Time, error) {
	v, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, coercionError(raw, row, column, value, "date")
	}
	return v, nil
}

func coercionError(raw *extract.RawTable, row int, column, value, want string) error {
	// Row numbers are 1-based and count the header, matching the source file.
	return fmt.Errorf("%s row %d: cannot cast %s value %q to %s",
		raw.Name, row+2, column, value, want)
}
