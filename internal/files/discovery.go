package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"salesdash/internal/validation"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds source files below a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.basePath, name)
}

// FindSources lists the files in dir with a supported source extension,
// in month order. Office lock files are skipped.
func (d *Discovery) FindSources(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isSource(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return lessByMonth(files[i].Name, files[j].Name)
	})
	return files, nil
}

// ResolveSources turns configured entries into paths. Plain names are kept
// even when the file is missing so validation can report them. A pattern
// expands to its matches in month order; a pattern with no match is kept
// as is. Paths already produced by an earlier entry are dropped.
func (d *Discovery) ResolveSources(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, entry := range entries {
		full := d.resolve(entry)
		if !isPattern(entry) {
			add(full)
			continue
		}

		matches, _ := filepath.Glob(full)
		sort.SliceStable(matches, func(i, j int) bool {
			return lessByMonth(filepath.Base(matches[i]), filepath.Base(matches[j]))
		})
		found := false
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() && isSource(filepath.Base(m)) {
				add(m)
				found = true
			}
		}
		if !found {
			add(full)
		}
	}
	return out
}

func isPattern(name string) bool {
	return strings.ContainsAny(name, "*?[")
}

func isSource(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range validation.SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// monthOf returns the calendar month named in a file name, or 13 when
// none is.
func monthOf(name string) int {
	lower := strings.ToLower(name)
	for m := time.January; m <= time.December; m++ {
		if strings.Contains(lower, strings.ToLower(m.String())) {
			return int(m)
		}
	}
	return 13
}

func lessByMonth(a, b string) bool {
	ma, mb := monthOf(a), monthOf(b)
	if ma != mb {
		return ma < mb
	}
	return a < b
}
