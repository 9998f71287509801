package exporter

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/dataprocessing"
)

// SheetName is the worksheet holding exported rows.
const SheetName = "Sales"

// WriteXLSX streams v into a single-sheet workbook and writes it to w.
// Quantities, prices and amounts are numeric cells; the order date is a
// date cell.
func WriteXLSX(ctx context.Context, w io.Writer, v dataprocessing.View) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to create stream writer: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return 0, fmt.Errorf("failed to create date style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return 0, fmt.Errorf("failed to create money style: %w", err)
	}

	headers := Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	written := 0
	var werr error
	v.Each(func(r *dataprocessing.Record) bool {
		if written%1024 == 0 {
			if werr = ctx.Err(); werr != nil {
				return false
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, written+2)
		if err != nil {
			werr = err
			return false
		}
		if werr = sw.SetRow(cell, xlsxRow(r, dateStyle, moneyStyle)); werr != nil {
			werr = fmt.Errorf("failed to write record %d: %w", written, werr)
			return false
		}
		written++
		return true
	})
	if werr != nil {
		return written, werr
	}

	if err := sw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return written, fmt.Errorf("failed to write workbook: %w", err)
	}
	return written, nil
}

func xlsxRow(r *dataprocessing.Record, dateStyle, moneyStyle int) []interface{} {
	var date interface{}
	if r.OrderDate != nil {
		date = excelize.Cell{StyleID: dateStyle, Value: *r.OrderDate}
	}
	return []interface{}{
		r.OrderID,
		r.Product,
		r.QuantityOrdered,
		excelize.Cell{StyleID: moneyStyle, Value: r.PriceEach.InexactFloat64()},
		date,
		r.PurchaseAddress,
		r.Month,
		r.Day,
		r.OrderTime,
		excelize.Cell{StyleID: moneyStyle, Value: r.Amount.InexactFloat64()},
		r.City,
	}
}
