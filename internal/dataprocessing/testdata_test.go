package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testHeader = "Order ID,Product,Quantity Ordered,Price Each,Order Date,Purchase Address"

// writeSource writes a CSV source with the standard header and returns
// its path.
func writeSource(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := testHeader + "\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func raw(id, product, qty, price, date, address string) RawRow {
	return RawRow{
		OrderID:         id,
		Product:         product,
		QuantityOrdered: qty,
		PriceEach:       price,
		OrderDate:       date,
		PurchaseAddress: address,
	}
}

// buildTestTable cleans and enriches rows with the numeric price policy.
func buildTestTable(rows ...RawRow) *Table {
	cleaned, _ := Clean(rows, PriceNumeric)
	return NewTable(Enrich(cleaned))
}
