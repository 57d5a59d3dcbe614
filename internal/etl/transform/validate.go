package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Validation rule names reported in violations.
const (
	RuleUniqueCustomerID  = "unique_customer_id"
	RuleUniqueProductID   = "unique_product_id"
	RuleUniqueOrderID     = "unique_order_id"
	RulePositiveQuantity  = "positive_quantity"
	RuleNonNegativeAmount = "non_negative_amount"
	RuleCustomerReference = "customer_reference"
	RuleProductReference  = "product_reference"
)

// Violation is a single broken data-quality rule with the keys that broke it.
type Violation struct {
	Rule  string
	Table string
	Keys  []string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s on %s: keys [%s]", v.Rule, v.Table, strings.Join(v.Keys, ", "))
}

// DataQualityError aggregates every violation found by the quality gate.
// The gate checks all rules before failing so one run reports every problem.
type DataQualityError struct {
	Violations []Violation
}

func (e *DataQualityError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("data quality check failed: %s", strings.Join(parts, "; "))
}

// validate runs all data-quality rules and returns every violation found.
// Orders referencing unknown customer or product ids are rejected here
// rather than silently retained: a fact row with a dangling key would drop
// out of every dimension join downstream.
func validate(customers []Customer, products []Product, orders []Sale) []Violation {
	var violations []Violation

	customerIDs := make(map[int]bool, len(customers))
	if dups := duplicateKeys(len(customers), func(i int) int { return customers[i].ID }, customerIDs); len(dups) > 0 {
		violations = append(violations, Violation{
			Rule: RuleUniqueCustomerID, Table: "customers", Keys: dups,
		})
	}

	productIDs := make(map[int]bool, len(products))
	if dups := duplicateKeys(len(products), func(i int) int { return products[i].ID }, productIDs); len(dups) > 0 {
		violations = append(violations, Violation{
			Rule: RuleUniqueProductID, Table: "products", Keys: dups,
		})
	}

	orderIDs := make(map[int]bool, len(orders))
	if dups := duplicateKeys(len(orders), func(i int) int { return orders[i].OrderID }, orderIDs); len(dups) > 0 {
		violations = append(violations, Violation{
			Rule: RuleUniqueOrderID, Table: "orders", Keys: dups,
		})
	}

	var badQuantity, badAmount, orphanCustomer, orphanProduct []string
	for _, o := range orders {
		key := strconv.Itoa(o.OrderID)
		if o.Quantity <= 0 {
			badQuantity = append(badQuantity, key)
		}
		if o.Amount < 0 {
			badAmount = append(badAmount, key)
		}
		if !customerIDs[o.CustomerID] {
			orphanCustomer = append(orphanCustomer, key)
		}
		if !productIDs[o.ProductID] {
			orphanProduct = append(orphanProduct, key)
		}
	}

	if len(badQuantity) > 0 {
		violations = append(violations, Violation{
			Rule: RulePositiveQuantity, Table: "orders", Keys: badQuantity,
		})
	}
	if len(badAmount) > 0 {
		violations = append(violations, Violation{
			Rule: RuleNonNegativeAmount, Table: "orders", Keys: badAmount,
		})
	}
	if len(orphanCustomer) > 0 {
		violations = append(violations, Violation{
			Rule: RuleCustomerReference, Table: "orders", Keys: orphanCustomer,
		})
	}
	if len(orphanProduct) > 0 {
		violations = append(violations, Violation{
			Rule: RuleProductReference, Table: "orders", Keys: orphanProduct,
		})
	}

	return violations
}

// duplicateKeys records every key into seen and returns the sorted set of
// keys that appeared more than once.
func duplicateKeys(n int, key func(i int) int, seen map[int]bool) []string {
	dupSet := make(map[int]bool)
	for i := 0; i < n; i++ {
		k := key(i)
		if seen[k] {
			dupSet[k] = true
		}
		seen[k] = true
	}
	if len(dupSet) == 0 {
		return nil
	}
	dups := make([]int, 0, len(dupSet))
	for k := range dupSet {
		dups = append(dups, k)
	}
	sort.Ints(dups)
	out := make([]string, len(dups))
	for i, k := range dups {
		out[i] = strconv.Itoa(k)
	}
	return out
}
