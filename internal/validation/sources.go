// Package validation checks the files the dashboard depends on before they
// are used, so every problem is reported at once instead of failing on the
// first unreadable source.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotExist        = errors.New("does not exist")
	ErrIsDirectory     = errors.New("is a directory")
	ErrUnreadable      = errors.New("is not readable")
	ErrUnsupportedType = errors.New("unsupported source type")
	ErrTemporaryFile   = errors.New("is a temporary office file")
)

// SourceExtensions are the source file types ingestion understands.
var SourceExtensions = []string{".csv", ".xlsx"}

// SourceProblem describes one unusable source file.
type SourceProblem struct {
	Path string
	Err  error
}

func (p SourceProblem) Error() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

func (p SourceProblem) Unwrap() error { return p.Err }

// FileValidator checks source files and output directories.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger.With(slog.String("component", "file_validator"))}
}

// ValidateFile checks that path is an existing, readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotExist
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSource checks a single source file: readable, of a supported
// type and not an office lock file.
func (v *FileValidator) ValidateSource(path string) error {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return ErrTemporaryFile
	}

	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range SourceExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w %q", ErrUnsupportedType, ext)
	}

	return v.ValidateFile(path)
}

// ValidateSources checks every file and returns the problems found, in
// input order. An empty result means every source is usable.
func (v *FileValidator) ValidateSources(files []string) []SourceProblem {
	var problems []SourceProblem
	for _, f := range files {
		if err := v.ValidateSource(f); err != nil {
			v.logger.Error("Source file unusable",
				slog.String("file", f),
				slog.String("error", err.Error()))
			problems = append(problems, SourceProblem{Path: f, Err: err})
		}
	}
	if len(problems) == 0 {
		v.logger.Info("Source files validated", slog.Int("files", len(files)))
	}
	return problems
}

// ValidateOutputDirectory ensures dir exists or can be created, and is
// writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
