// Package transform casts raw tables to typed records, enforces data-quality
// invariants, and derives the star-schema dimension and fact tables.
package transform

import "time"

// DateLayout is the calendar date format used by raw sources and artifacts.
const DateLayout = "2006-01-02"

// Customer is a row of the customer dimension.
type Customer struct {
	ID         int
	Name       string
	Email      string
	City       string
	State      string
	SignupDate time.Time
}

// Product is a row of the product dimension.
type Product struct {
	ID       int
	Name     string
	Category string
	Price    float64
}

// Sale is a row of the sales fact table. OrderYear and OrderMonth are
// derived from OrderDate.
type Sale struct {
	OrderID    int
	OrderDate  time.Time
	OrderYear  int
	OrderMonth int
	CustomerID int
	ProductID  int
	Quantity   int
	Amount     float64
}

// Tables is the validated star-schema snapshot produced by one pipeline run.
type Tables struct {
	Customers []Customer
	Products  []Product
	Sales     []Sale
}
