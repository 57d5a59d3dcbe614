package warehouse

import (
	"fmt"
	"strconv"
	"strings"
)

// All is the sentinel for an unconstrained filter axis.
const All = 0

// Filter restricts aggregate queries to a year and/or month. A zero value
// on either axis means no constraint on that axis.
type Filter struct {
	Year  int
	Month int
}

// InvalidFilterError indicates a filter value that is not a valid period.
// Filter values are validated as integers before ever reaching a query;
// they are bound as parameters, never interpolated into query text.
type InvalidFilterError struct {
	Field string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid %s filter: %q", e.Field, e.Value)
}

// ParseFilter builds a Filter from user-supplied year and month selections.
// An empty string or "all" (case-insensitive) leaves the axis unconstrained.
func ParseFilter(year, month string) (Filter, error) {
	f := Filter{}

	y, err := parseAxis("year", year)
	if err != nil {
		return Filter{}, err
	}
	f.Year = y

	m, err := parseAxis("month", month)
	if err != nil {
		return Filter{}, err
	}
	f.Month = m

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseAxis(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return All, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, &InvalidFilterError{Field: field, Value: value}
	}
	return v, nil
}

// Validate checks that constrained axes carry plausible period values.
func (f Filter) Validate() error {
	if f.Year != All && (f.Year < 1 || f.Year > 9999) {
		return &InvalidFilterError{Field: "year", Value: strconv.Itoa(f.Year)}
	}
	if f.Month != All && (f.Month < 1 || f.Month > 12) {
		return &InvalidFilterError{Field: "month", Value: strconv.Itoa(f.Month)}
	}
	return nil
}

// String renders the filter for logs and report headers.
func (f Filter) String() string {
	year, month := "all", "all"
	if f.Year != All {
		year = strconv.Itoa(f.Year)
	}
	if f.Month != All {
		month = fmt.Sprintf("%02d", f.Month)
	}
	return fmt.Sprintf("year=%s month=%s", year, month)
}

// where builds a conjunctive parameterized predicate from the constrained
// axes only. qualifier prefixes column references ("f." in joined queries).
func (f Filter) where(qualifier string) (string, []any) {
	var conds []string
	var args []any

	if f.Year != All {
		args = append(args, f.Year)
		conds = append(conds, fmt.Sprintf("%sorder_year = $%d", qualifier, len(args)))
	}
	if f.Month != All {
		args = append(args, f.Month)
		conds = append(conds, fmt.Sprintf("%sorder_month = $%d", qualifier, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
