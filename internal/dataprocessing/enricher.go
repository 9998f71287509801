package dataprocessing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Enrich derives month, day, time of day, amount and city for every record.
// It never filters and never modifies its input.
func Enrich(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = EnrichRecord(rec)
	}
	return out
}

// EnrichRecord computes the derived fields of a single record.
func EnrichRecord(rec Record) Record {
	if rec.OrderDate != nil {
		ts := *rec.OrderDate
		rec.Month = ts.Month().String()
		rec.Day = ts.Weekday().String()
		rec.OrderTime = ts.Format(orderTimeLayout)
	}
	rec.Amount = rec.PriceEach.Mul(decimal.NewFromInt(rec.QuantityOrdered)).Round(2)
	rec.City = CityFromAddress(rec.PurchaseAddress)
	return rec
}

const orderTimeLayout = "15:04:05"

// CityFromAddress returns the second-to-last comma separated segment of a
// purchase address, trimmed. Addresses with fewer than two segments have no
// city and yield "".
//
//	CityFromAddress("136 Church St, New York City, NY 10001") // "New York City"
func CityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-2])
}
