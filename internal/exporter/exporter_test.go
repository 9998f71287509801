package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	apierrors "salesdash/internal/errors"
)

func testView(t *testing.T) dataprocessing.View {
	t.Helper()
	rows := []dataprocessing.RawRow{
		{OrderID: "1", Product: "iPhone", QuantityOrdered: "1", PriceEach: "700", OrderDate: "04/19/19 08:46", PurchaseAddress: "1 A St, Dallas, TX 75001"},
		{OrderID: "2", Product: "Wired Headphones", QuantityOrdered: "3", PriceEach: "11.99", OrderDate: "05/07/19 22:30", PurchaseAddress: "2 B St, Boston, MA 02215"},
		{OrderID: "4", Product: "AA Batteries (4-pack)", QuantityOrdered: "3", PriceEach: "3.84", OrderDate: "bad date", PurchaseAddress: "4 D St, Dallas, TX 75001"},
	}
	cleaned, _ := dataprocessing.Clean(rows, dataprocessing.PriceNumeric)
	return dataprocessing.NewTable(dataprocessing.Enrich(cleaned)).All()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Metadata(t *testing.T) {
	at := time.Date(2019, 12, 31, 23, 59, 58, 0, time.UTC)

	assert.Equal(t, "sales_export_20191231_235958.csv", FormatCSV.Filename(at))
	assert.Equal(t, "sales_export_20191231_235958.xlsx", FormatXLSX.Filename(at))
	assert.True(t, strings.HasPrefix(FormatCSV.ContentType(), "text/csv"))
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, []string{
		"Order ID", "Product", "Quantity Ordered", "Price Each", "Order Date", "Purchase Address",
		"Month", "Day", "Time", "Amount", "City",
	}, Headers())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	n, err := WriteCSV(context.Background(), &buf, testView(t), CSVOptions{BOMPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, Headers(), records[0])
	assert.Equal(t, []string{
		"2", "Wired Headphones", "3", "11.99", "05/07/19 22:30", "2 B St, Boston, MA 02215",
		"May", "Tuesday", "22:30:00", "35.97", "Boston",
	}, records[2])

	// A null order date leaves the date and its derived columns empty.
	assert.Equal(t, "", records[3][4])
	assert.Equal(t, "", records[3][6])
	assert.Equal(t, "11.52", records[3][9])
}

func TestWriteCSV_ReadsBackThroughIngestion(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteCSV(context.Background(), &buf, testView(t), CSVOptions{})
	require.NoError(t, err)

	rows, err := dataprocessing.ReadSource(&buf, "export.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "04/19/19 08:46", rows[0].OrderDate)
	assert.Equal(t, "700.00", rows[0].PriceEach)
}

func TestWriteCSV_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WriteCSV(ctx, &bytes.Buffer{}, testView(t), CSVOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer

	n, err := WriteXLSX(context.Background(), &buf, testView(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Headers(), rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "iPhone", rows[1][1])
	assert.Equal(t, "700.00", rows[1][3])
	assert.Equal(t, "Dallas", rows[1][10])
	assert.Equal(t, "", rows[3][4])
	assert.Equal(t, "11.52", rows[3][9])
}

func TestWriteXLSX_ReadsBackThroughIngestion(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteXLSX(context.Background(), &buf, testView(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	rows, err := dataprocessing.ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "04/19/2019 08:46:00", rows[0].OrderDate)
	assert.Equal(t, "", rows[2].OrderDate)

	records, report := dataprocessing.Clean(rows, dataprocessing.PriceNumeric)
	require.Len(t, records, 3)
	assert.Equal(t, 1, report.UnparsedDates)

	enriched := dataprocessing.Enrich(records)
	require.NotNil(t, enriched[0].OrderDate)
	assert.Equal(t, time.Date(2019, time.April, 19, 8, 46, 0, 0, time.UTC), *enriched[0].OrderDate)
	assert.Equal(t, "April", enriched[0].Month)
	assert.Equal(t, "May", enriched[1].Month)
	assert.Equal(t, "Dallas", enriched[0].City)
}

func TestWrite_UnknownFormat(t *testing.T) {
	_, err := Write(context.Background(), &bytes.Buffer{}, Format("pdf"), testView(t))
	assert.Error(t, err)
}

func TestFileExporter(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{ExportsDir: filepath.Join(dir, "exports")}
	e := NewFileExporter(paths, nil)
	at := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)

	path, err := e.Export(context.Background(), FormatCSV, testView(t), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "sales_export_20190601_120000.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Wired Headphones")

	path, err = e.ExportTo(context.Background(), "custom.xlsx", FormatXLSX, testView(t))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFileExporter_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	e := NewFileExporter(&config.Paths{ExportsDir: dir}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExportTo(ctx, "partial.csv", FormatCSV, testView(t))
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.KindExport, appErr.Kind)
	assert.Equal(t, apierrors.KindExport, apierrors.KindOf(err))
	assert.NoFileExists(t, filepath.Join(dir, "partial.csv"))
}
