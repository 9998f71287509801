package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"salesdash/internal/dataprocessing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV output.
type CSVOptions struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognises the encoding.
	BOMPrefix bool
}

// WriteCSV streams v to w and returns the number of data rows written.
// It stops early with ctx.Err() if ctx ends.
func WriteCSV(ctx context.Context, w io.Writer, v dataprocessing.View, opts CSVOptions) (int, error) {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Headers()); err != nil {
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
		if werr = writer.Write(recordFields(r)); werr != nil {
			werr = fmt.Errorf("failed to write record %d: %w", written, werr)
			return false
		}
		written++
		return true
	})
	if werr != nil {
		return written, werr
	}

	writer.Flush()
	return written, writer.Error()
}
