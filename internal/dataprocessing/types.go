package dataprocessing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Required CSV column names. Every source file must carry all of them.
const (
	ColumnOrderID         = "Order ID"
	ColumnProduct         = "Product"
	ColumnQuantityOrdered = "Quantity Ordered"
	ColumnPriceEach       = "Price Each"
	ColumnOrderDate       = "Order Date"
	ColumnPurchaseAddress = "Purchase Address"
)

// RequiredColumns lists the columns in the order they are exported.
var RequiredColumns = []string{
	ColumnOrderID,
	ColumnProduct,
	ColumnQuantityOrdered,
	ColumnPriceEach,
	ColumnOrderDate,
	ColumnPurchaseAddress,
}

// Unknown is the facet option standing in for a null month or city.
const Unknown = "Unknown"

// Weekdays is the fixed calendar order of the weekly trend.
var Weekdays = []string{
	time.Monday.String(),
	time.Tuesday.String(),
	time.Wednesday.String(),
	time.Thursday.String(),
	time.Friday.String(),
	time.Saturday.String(),
	time.Sunday.String(),
}

// RawRow is one line of a source file, untyped. It is comparable so that
// exact duplicates can be detected with a map.
type RawRow struct {
	OrderID         string
	Product         string
	QuantityOrdered string
	PriceEach       string
	OrderDate       string
	PurchaseAddress string
}

// IsEmpty reports whether every field of the row is empty.
func (r RawRow) IsEmpty() bool {
	return r == RawRow{}
}

// Record is a cleaned and enriched sales line item.
type Record struct {
	OrderID         int64
	Product         string
	QuantityOrdered int64
	PriceEach       decimal.Decimal
	// OrderDate is nil when the raw timestamp could not be parsed.
	OrderDate       *time.Time
	PurchaseAddress string

	// Derived by Enrich. Month, Day and OrderTime are empty when OrderDate
	// is nil; City is empty when the address has fewer than two segments.
	Month     string
	Day       string
	OrderTime string
	Amount    decimal.Decimal
	City      string
}

// MonthFacet returns the month value used for filtering.
func (r *Record) MonthFacet() string {
	if r.Month == "" {
		return Unknown
	}
	return r.Month
}

// CityFacet returns the city value used for filtering.
func (r *Record) CityFacet() string {
	if r.City == "" {
		return Unknown
	}
	return r.City
}

// PricePolicy selects how the raw "Price Each" field is validated.
type PricePolicy string

const (
	// PriceNumeric accepts plain non-negative decimals such as "19.99" or
	// "1700". Exponents and signs are rejected.
	PriceNumeric PricePolicy = "numeric"
	// PriceDigits accepts only strings of decimal digits, so "19.99" is
	// dropped. This reproduces the historical dashboard output.
	PriceDigits PricePolicy = "digits"
)

// ParsePricePolicy converts a configuration value into a PricePolicy.
func ParsePricePolicy(s string) (PricePolicy, error) {
	switch PricePolicy(s) {
	case PriceNumeric, "":
		return PriceNumeric, nil
	case PriceDigits:
		return PriceDigits, nil
	default:
		return "", &PolicyError{Value: s}
	}
}

// PolicyError reports an unknown price policy.
type PolicyError struct {
	Value string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("unknown price policy %q (want numeric or digits)", e.Value)
}

// CleanReport counts the rows removed by each cleaning step.
type CleanReport struct {
	InputRows       int `json:"input_rows"`
	EmptyRows       int `json:"empty_rows"`
	DuplicateRows   int `json:"duplicate_rows"`
	InvalidQuantity int `json:"invalid_quantity"`
	InvalidPrice    int `json:"invalid_price"`
	InvalidOrderID  int `json:"invalid_order_id"`
	UnparsedDates   int `json:"unparsed_dates"`
	OutputRows      int `json:"output_rows"`
}

// Dropped returns the total number of rows removed.
func (c CleanReport) Dropped() int {
	return c.EmptyRows + c.DuplicateRows + c.InvalidQuantity + c.InvalidPrice + c.InvalidOrderID
}
