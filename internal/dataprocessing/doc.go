// Package dataprocessing turns the monthly electronics sales extracts into the
// enriched, immutable table the dashboard is built from, and provides the
// filter and aggregation functions that run on every interaction.
//
// # Architecture
//
// The package is organized into five components, applied in order:
//
//  1. Ingest: reads every configured CSV or XLSX source into one list of raw rows
//  2. Clean: drops empty, duplicate and malformed rows and coerces types
//  3. Enrich: derives month, day, time of day, amount and city
//  4. Filter: narrows the table by product, city and month selections
//  5. Aggregate: computes KPIs and the four chart datasets
//
// Steps 1-3 run once per dataset build (BuildTable). Steps 4-5 are pure
// functions of a *Table and a Selection and are safe to call concurrently.
//
// # Usage
//
//	table, err := dataprocessing.BuildTable(ctx, dataprocessing.BuildOptions{
//	    Files:       paths.SourcePaths(cfg.Dataset.SourceFiles),
//	    PricePolicy: dataprocessing.PriceNumeric,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	view := dataprocessing.Filter(table, table.Options().All())
//	summary := dataprocessing.Aggregate(view)
//
// # Error Handling
//
// Only ingestion fails: a missing file or a missing required column is a
// *SourceError. Row-level problems never surface as errors; they are counted
// in CleanReport and the row is dropped, or the timestamp is left null.
package dataprocessing
