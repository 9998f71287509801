// Package exporter writes the filtered raw-data view of the sales dashboard
// as CSV or XLSX.
//
// Both formats carry the six source columns followed by the derived ones
// (month, day, time, amount, city), in table order. Writers stream row by
// row, so exporting the full dataset does not build it in memory.
//
// Example usage:
//
//	view, _ := dashboardService.View(ctx, selection)
//	err := exporter.Write(w, exporter.FormatCSV, view)
//
//	// or into the exports directory
//	path, err := exporter.NewFileExporter(paths).Export(exporter.FormatXLSX, view, time.Now())
package exporter
