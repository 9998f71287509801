package dataprocessing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when parsing "Order Date". The first is
// the layout used by the monthly extracts, e.g. "04/19/19 08:46".
var dateLayouts = []string{
	"01/02/06 15:04",
	"01/02/2006 15:04",
	"01/02/06 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Clean turns raw rows into typed records. The steps run in a fixed order:
// drop empty rows, drop exact duplicates (first occurrence wins), keep rows
// with a valid quantity, then price, then order id, and finally parse the
// order date, leaving it nil on failure. Clean never fails; every rejected
// row is counted in the report instead.
func Clean(rows []RawRow, policy PricePolicy) ([]Record, CleanReport) {
	report := CleanReport{InputRows: len(rows)}

	seen := make(map[RawRow]struct{}, len(rows))
	out := make([]Record, 0, len(rows))

	for _, row := range rows {
		if row.IsEmpty() {
			report.EmptyRows++
			continue
		}
		if _, dup := seen[row]; dup {
			report.DuplicateRows++
			continue
		}
		seen[row] = struct{}{}

		qty, ok := parseQuantity(row.QuantityOrdered)
		if !ok {
			report.InvalidQuantity++
			continue
		}
		price, ok := parsePrice(row.PriceEach, policy)
		if !ok {
			report.InvalidPrice++
			continue
		}
		id, ok := parseDigits(row.OrderID)
		if !ok {
			report.InvalidOrderID++
			continue
		}

		rec := Record{
			OrderID:         id,
			Product:         row.Product,
			QuantityOrdered: qty,
			PriceEach:       price,
			PurchaseAddress: row.PurchaseAddress,
		}
		if ts, ok := ParseOrderDate(row.OrderDate); ok {
			rec.OrderDate = &ts
		} else {
			report.UnparsedDates++
		}
		out = append(out, rec)
	}

	report.OutputRows = len(out)
	return out, report
}

// ParseOrderDate parses a raw order timestamp using the known layouts.
func ParseOrderDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// IsDigits reports whether s is a non-empty run of ASCII decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isPlainDecimal reports whether s has the form digits[.digits]. Signs,
// exponents and separators are rejected.
func isPlainDecimal(s string) bool {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if !IsDigits(whole) {
		return false
	}
	return !hasPoint || IsDigits(frac)
}

func parseDigits(s string) (int64, bool) {
	if !IsDigits(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseQuantity also rejects zero so every record keeps a positive quantity.
func parseQuantity(s string) (int64, bool) {
	n, ok := parseDigits(s)
	if !ok || n == 0 {
		return 0, false
	}
	return n, true
}

func parsePrice(s string, policy PricePolicy) (decimal.Decimal, bool) {
	if policy == PriceDigits && !IsDigits(s) {
		return decimal.Decimal{}, false
	}
	if !isPlainDecimal(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
