package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	paths, err := GetPaths(PathsConfig{BaseDir: base, DataDir: abs, ExportsDir: "out"})
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, abs, paths.DataDir)
	assert.Equal(t, filepath.Join(base, "out"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(base, DefaultLogsDir), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, DefaultWebDir, "static"), paths.StaticDir)
}

func TestGetPaths_ExecutableDir(t *testing.T) {
	paths, err := GetPaths(PathsConfig{})
	require.NoError(t, err)

	exeDir, err := ExecutableDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exeDir, DefaultDataDir), paths.DataDir)
}

func TestPaths_SourcePaths(t *testing.T) {
	paths := &Paths{DataDir: filepath.FromSlash("/srv/data")}
	abs := filepath.Join(t.TempDir(), "x.csv")

	got := paths.SourcePaths([]string{"Sales_April_2019.csv", abs})
	assert.Equal(t, []string{filepath.Join(paths.DataDir, "Sales_April_2019.csv"), abs}, got)
}

func TestPaths_SourcePaths_Pattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Sales_March_2019.csv", "Sales_January_2019.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("Order ID\n"), 0o644))
	}
	paths := &Paths{DataDir: dir}

	got := paths.SourcePaths([]string{"Sales_*_2019.csv"})
	assert.Equal(t, []string{
		filepath.Join(dir, "Sales_January_2019.csv"),
		filepath.Join(dir, "Sales_March_2019.csv"),
	}, got)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := GetPaths(PathsConfig{BaseDir: base})
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.ExportsDir)
	assert.DirExists(t, paths.LogsDir)
	assert.NoDirExists(t, paths.DataDir)

	assert.Equal(t, filepath.Join(paths.ExportsDir, "rows.csv"), paths.GetExportPath("rows.csv"))
	assert.Equal(t, filepath.Join(paths.LogsDir, "app.log"), paths.GetLogPath("app.log"))
}

func TestFileExists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "present.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(file+".missing"))
}
