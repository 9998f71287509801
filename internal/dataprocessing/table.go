package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// FacetOptions lists the selectable values of every facet in order of
// first appearance in the table.
type FacetOptions struct {
	Products []string `json:"products"`
	Cities   []string `json:"cities"`
	Months   []string `json:"months"`
}

// All returns a selection containing every option, which reproduces the
// full table when filtered.
func (o FacetOptions) All() Selection {
	return Selection{
		Products: append([]string(nil), o.Products...),
		Cities:   append([]string(nil), o.Cities...),
		Months:   append([]string(nil), o.Months...),
	}
}

// Table is the enriched, immutable dataset. It is safe for concurrent use
// by any number of readers once built.
type Table struct {
	records []Record
	options FacetOptions

	version string
	builtAt time.Time
	files   []FileStat
	rawRows int
	report  CleanReport
	policy  PricePolicy
}

// NewTable wraps already enriched records. The slice is owned by the table
// afterwards and must not be modified by the caller.
func NewTable(records []Record) *Table {
	return &Table{
		records: records,
		options: collectOptions(records),
		version: uuid.NewString(),
		builtAt: time.Now().UTC(),
		rawRows: len(records),
		report:  CleanReport{InputRows: len(records), OutputRows: len(records)},
		policy:  PriceNumeric,
	}
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Row returns a pointer to the i-th record. The record must not be modified.
func (t *Table) Row(i int) *Record { return &t.records[i] }

// Options returns the facet options observed in the table.
func (t *Table) Options() FacetOptions { return t.options }

// Version identifies this build of the dataset.
func (t *Table) Version() string { return t.version }

// BuiltAt returns when the table was built.
func (t *Table) BuiltAt() time.Time { return t.builtAt }

// Files returns per-source row counts in ingestion order.
func (t *Table) Files() []FileStat { return t.files }

// RawRows returns the number of rows read before cleaning.
func (t *Table) RawRows() int { return t.rawRows }

// Report returns the cleaning statistics.
func (t *Table) Report() CleanReport { return t.report }

// PricePolicy returns the policy the table was cleaned with.
func (t *Table) PricePolicy() PricePolicy { return t.policy }

// All returns a view over every record.
func (t *Table) All() View {
	idx := make([]int, len(t.records))
	for i := range idx {
		idx[i] = i
	}
	return View{table: t, idx: idx}
}

// View is a filtered, read-only window onto a Table.
type View struct {
	table *Table
	idx   []int
}

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.idx) }

// Row returns the i-th row of the view.
func (v View) Row(i int) *Record { return v.table.Row(v.idx[i]) }

// Table returns the table the view was taken from.
func (v View) Table() *Table { return v.table }

// Each calls fn for every row in order until fn returns false.
func (v View) Each(fn func(*Record) bool) {
	for _, i := range v.idx {
		if !fn(v.table.Row(i)) {
			return
		}
	}
}

// Slice returns the rows in [offset, offset+limit), clamped to the view.
func (v View) Slice(offset, limit int) View {
	if offset < 0 {
		offset = 0
	}
	if offset > len(v.idx) {
		offset = len(v.idx)
	}
	end := len(v.idx)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return View{table: v.table, idx: v.idx[offset:end]}
}

// BuildOptions configures BuildTable.
type BuildOptions struct {
	Files       []string
	PricePolicy PricePolicy
	Logger      *slog.Logger
}

// BuildTable runs ingestion, cleaning and enrichment and returns the
// resulting table. Only ingestion can fail.
func BuildTable(ctx context.Context, opts BuildOptions) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.PricePolicy
	if policy == "" {
		policy = PriceNumeric
	}

	start := time.Now()
	ingested, err := Ingest(ctx, opts.Files, logger)
	if err != nil {
		return nil, err
	}

	cleaned, report := Clean(ingested.Rows, policy)
	t := NewTable(Enrich(cleaned))
	t.files = ingested.Files
	t.rawRows = len(ingested.Rows)
	t.report = report
	t.policy = policy

	logger.InfoContext(ctx, "dataset built",
		slog.String("version", t.version),
		slog.Int("raw_rows", t.rawRows),
		slog.Int("rows", t.Len()),
		slog.Int("dropped", report.Dropped()),
		slog.Int("unparsed_dates", report.UnparsedDates),
		slog.String("price_policy", string(policy)),
		slog.Duration("duration", time.Since(start)))

	return t, nil
}

func collectOptions(records []Record) FacetOptions {
	var opts FacetOptions
	products := make(map[string]struct{})
	cities := make(map[string]struct{})
	months := make(map[string]struct{})
	var unknownCity, unknownMonth bool

	for i := range records {
		r := &records[i]
		if _, ok := products[r.Product]; !ok {
			products[r.Product] = struct{}{}
			opts.Products = append(opts.Products, r.Product)
		}
		if r.City == "" {
			unknownCity = true
		} else if _, ok := cities[r.City]; !ok {
			cities[r.City] = struct{}{}
			opts.Cities = append(opts.Cities, r.City)
		}
		if r.Month == "" {
			unknownMonth = true
		} else if _, ok := months[r.Month]; !ok {
			months[r.Month] = struct{}{}
			opts.Months = append(opts.Months, r.Month)
		}
	}
	if unknownCity {
		opts.Cities = append(opts.Cities, Unknown)
	}
	if unknownMonth {
		opts.Months = append(opts.Months, Unknown)
	}
	return opts
}
