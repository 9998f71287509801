package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	apierrors "salesdash/internal/errors"
)

// Write exports v to w in the given format and returns the rows written.
// CSV output carries a BOM for Excel.
func Write(ctx context.Context, w io.Writer, format Format, v dataprocessing.View) (int, error) {
	switch format {
	case FormatCSV:
		return WriteCSV(ctx, w, v, CSVOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(ctx, w, v)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
}

// FileExporter writes exports into the exports directory.
type FileExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewFileExporter creates a FileExporter rooted at paths.ExportsDir.
func NewFileExporter(paths *config.Paths, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{paths: paths, logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes v to a new timestamped file and returns its path. A
// partially written file is removed on failure.
func (e *FileExporter) Export(ctx context.Context, format Format, v dataprocessing.View, at time.Time) (string, error) {
	return e.ExportTo(ctx, e.paths.GetExportPath(format.Filename(at)), format, v)
}

// ExportTo writes v to path. Relative paths resolve against the exports
// directory.
func (e *FileExporter) ExportTo(ctx context.Context, path string, format Format, v dataprocessing.View) (string, error) {
	if !filepath.IsAbs(path) {
		path = e.paths.GetExportPath(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apierrors.Wrap(apierrors.KindExport, "failed to create export directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", apierrors.Wrap(apierrors.KindExport, "failed to create export file", err).With("path", path)
	}

	rows, err := Write(ctx, file, format, v)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", apierrors.Wrap(apierrors.KindExport, "failed to write export", err).With("format", string(format))
	}

	e.logger.InfoContext(ctx, "export written",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("rows", rows))
	return path, nil
}
