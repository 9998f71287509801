package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Ingestion errors. All are fatal: the dashboard has nothing to show
// without every configured source.
var (
	ErrSourceUnreadable = errors.New("source file unreadable")
	ErrMissingColumn    = errors.New("required column missing")
	ErrNoSources        = errors.New("no source files configured")
)

// workbookDateLayout is one of dateLayouts, with seconds so exported
// timestamps survive a read back.
const workbookDateLayout = "01/02/2006 15:04:05"

// SourceError describes which source failed to ingest and why.
type SourceError struct {
	Source string
	Column string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %v: %q", e.Source, e.Err, e.Column)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// FileStat records how many raw rows one source contributed.
type FileStat struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// IngestResult is the concatenation of every source, in configured order.
type IngestResult struct {
	Rows  []RawRow
	Files []FileStat
}

// Ingest reads every file and concatenates the rows. Files are read
// concurrently; the result keeps the order of files and the row order
// within each file.
func Ingest(ctx context.Context, files []string, logger *slog.Logger) (*IngestResult, error) {
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	if logger == nil {
		logger = slog.Default()
	}

	parts := make([][]RawRow, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := ReadSourceFile(file)
			if err != nil {
				return err
			}
			parts[i] = rows
			logger.DebugContext(ctx, "source ingested",
				slog.String("file", file),
				slog.Int("rows", len(rows)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	result := &IngestResult{
		Rows:  make([]RawRow, 0, total),
		Files: make([]FileStat, len(files)),
	}
	for i, p := range parts {
		result.Rows = append(result.Rows, p...)
		result.Files[i] = FileStat{Name: filepath.Base(files[i]), Rows: len(p)}
	}

	logger.InfoContext(ctx, "ingestion complete",
		slog.Int("files", len(files)),
		slog.Int("rows", total))

	return result, nil
}

// ReadSourceFile opens and parses one source. Files ending in .xlsx are
// read as workbooks; anything else is parsed as CSV.
func ReadSourceFile(path string) ([]RawRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadWorkbook(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Source: path, Err: fmt.Errorf("%w: %v", ErrSourceUnreadable, err)}
	}
	defer f.Close()

	return ReadSource(f, path)
}

// ReadSource parses CSV data whose header carries the required columns.
// Extra columns are ignored; short rows leave the missing fields empty.
func ReadSource(r io.Reader, name string) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SourceError{Source: name, Column: ColumnOrderID, Err: ErrMissingColumn}
	}
	if err != nil {
		return nil, &SourceError{Source: name, Err: fmt.Errorf("%w: %v", ErrSourceUnreadable, err)}
	}

	cols, err := requiredColumns(header, name)
	if err != nil {
		return nil, err
	}

	var rows []RawRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceError{Source: name, Err: fmt.Errorf("%w: %v", ErrSourceUnreadable, err)}
		}
		rows = append(rows, cols.row(rec))
	}
	return rows, nil
}

// ReadWorkbook parses the first sheet of an XLSX workbook laid out like
// the CSV sources: a header row followed by one order line per row.
func ReadWorkbook(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &SourceError{Source: path, Err: fmt.Errorf("%w: %v", ErrSourceUnreadable, err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &SourceError{Source: path, Column: ColumnOrderID, Err: ErrMissingColumn}
	}

	// Raw values keep text cells such as "04/19/19 08:46" exactly as typed.
	// Date-typed cells come back as serial numbers and are converted below.
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &SourceError{Source: path, Err: fmt.Errorf("%w: %v", ErrSourceUnreadable, err)}
	}
	if len(records) == 0 {
		return nil, &SourceError{Source: path, Column: ColumnOrderID, Err: ErrMissingColumn}
	}

	cols, err := requiredColumns(records[0], path)
	if err != nil {
		return nil, err
	}

	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := cols.row(rec)
		row.OrderDate = workbookDate(row.OrderDate, date1904)
		rows = append(rows, row)
	}
	return rows, nil
}

// workbookDate turns a date-typed cell, which reads back as an Excel serial
// number, into the timestamp layout of the monthly extracts. Text cells are
// returned unchanged.
func workbookDate(raw string, date1904 bool) string {
	if raw == "" {
		return raw
	}
	if _, ok := ParseOrderDate(raw); ok {
		return raw
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	ts, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return raw
	}
	return ts.Round(time.Second).Format(workbookDateLayout)
}

// columnMap holds the position of each required column in a header.
type columnMap []int

func requiredColumns(header []string, name string) (columnMap, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	cols := make(columnMap, len(RequiredColumns))
	for i, c := range RequiredColumns {
		pos, ok := index[c]
		if !ok {
			return nil, &SourceError{Source: name, Column: c, Err: ErrMissingColumn}
		}
		cols[i] = pos
	}
	return cols, nil
}

func (c columnMap) field(rec []string, i int) string {
	if c[i] < len(rec) {
		return rec[c[i]]
	}
	return ""
}

func (c columnMap) row(rec []string) RawRow {
	return RawRow{
		OrderID:         c.field(rec, 0),
		Product:         c.field(rec, 1),
		QuantityOrdered: c.field(rec, 2),
		PriceEach:       c.field(rec, 3),
		OrderDate:       c.field(rec, 4),
		PurchaseAddress: c.field(rec, 5),
	}
}
