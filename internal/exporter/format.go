package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/dataprocessing"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []string{string(FormatCSV), string(FormatXLSX)}

// ParseFormat accepts "csv" or "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename names an export taken at the given time.
func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("sales_export_%s.%s", at.UTC().Format("20060102_150405"), f)
}

// Derived column headers.
const (
	ColumnMonth  = "Month"
	ColumnDay    = "Day"
	ColumnTime   = "Time"
	ColumnAmount = "Amount"
	ColumnCity   = "City"
)

// Headers returns the export header row.
func Headers() []string {
	h := make([]string, 0, len(dataprocessing.RequiredColumns)+5)
	h = append(h, dataprocessing.RequiredColumns...)
	return append(h, ColumnMonth, ColumnDay, ColumnTime, ColumnAmount, ColumnCity)
}

// orderDateLayout is the layout of the source files, so exports read back
// through the same cleaner.
const orderDateLayout = "01/02/06 15:04"

// recordFields renders r as text cells in Headers order. A null order date
// is written as an empty cell.
func recordFields(r *dataprocessing.Record) []string {
	date := ""
	if r.OrderDate != nil {
		date = r.OrderDate.Format(orderDateLayout)
	}
	return []string{
		formatInt(r.OrderID),
		r.Product,
		formatInt(r.QuantityOrdered),
		r.PriceEach.StringFixed(2),
		date,
		r.PurchaseAddress,
		r.Month,
		r.Day,
		r.OrderTime,
		r.Amount.StringFixed(2),
		r.City,
	}
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
