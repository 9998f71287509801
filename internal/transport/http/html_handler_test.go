package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDashboardPage_Fallback(t *testing.T) {
	handler := ServeDashboardPage(t.TempDir(), PageData{
		Title:  "Electronics Gadget Sales Dashboard",
		Header: "Electronics Gadget Sales Analysis",
		Footer: "Data Source: Blord Group",
	}, newTestLogger())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Electronics Gadget Sales Dashboard</title>")
	assert.Contains(t, rec.Body.String(), "/api/dashboard/export.csv")
	assert.Contains(t, rec.Body.String(), "Data Source: Blord Group")
}

func TestServeDashboardPage_Template(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<h1>{{.Header}}</h1>`), 0o644))

	handler := ServeDashboardPage(dir, PageData{Header: "Sales & Co"}, nil)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Sales &amp; Co</h1>", rec.Body.String())
}

func TestServeDashboardPage_BrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`{{.Header`), 0o644))

	handler := ServeDashboardPage(dir, PageData{}, newTestLogger())
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "charts.js"), []byte("draw()"), 0o644))

	rec := httptest.NewRecorder()
	StaticFiles(dir).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/charts.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "draw()", rec.Body.String())
}
