package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	contracts "salesdash/pkg/contracts"
)

// PageData is handed to the dashboard page template.
type PageData struct {
	Title      string
	Header     string
	Footer     string
	Version    string
	APIVersion string
	Now        string
}

// fallbackPage is served when the web directory carries no index.html, so
// the server stays usable with only the JSON API.
var fallbackPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        footer { margin-top: 40px; color: #666; }
    </style>
</head>
<body>
    <h1>{{.Header}}</h1>
    <p>Version {{.Version}}, API {{.APIVersion}}, rendered {{.Now}}</p>
    <h2>Endpoints</h2>
    <ul>
        <li><a href="/api/dashboard">Dashboard</a></li>
        <li><a href="/api/dashboard/options">Filter options</a></li>
        <li><a href="/api/dashboard/rows">Raw data</a></li>
        <li><a href="/api/dashboard/export.csv">Export CSV</a></li>
        <li><a href="/api/dashboard/export.xlsx">Export XLSX</a></li>
        <li><a href="/api/dataset">Dataset</a></li>
        <li><a href="/api/health">Health Check</a></li>
        <li><a href="/api/version">Version Info</a></li>
    </ul>
    <footer>{{.Footer}}</footer>
</body>
</html>
`))

// ServeDashboardPage serves webDir/index.html rendered as a template, or a
// built-in page listing the API when there is none.
func ServeDashboardPage(webDir string, page PageData, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	page.Version = contracts.Version
	page.APIVersion = contracts.APIVersion

	return func(w http.ResponseWriter, r *http.Request) {
		data := page
		data.Now = time.Now().Format("2006-01-02 15:04:05")

		tmpl := fallbackPage
		indexPath := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(indexPath); err == nil {
			parsed, err := template.ParseFiles(indexPath)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to parse dashboard page",
					slog.String("path", indexPath),
					slog.String("error", err.Error()))
				http.Error(w, "Error loading page", http.StatusInternalServerError)
				return
			}
			tmpl = parsed
		}

		serveHTML(w, tmpl, data)
	}
}

// StaticFiles serves the assets under dir, such as chart scripts and styles.
func StaticFiles(dir string) http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
}

// serveHTML renders tmpl with proper headers. The page is rendered into a
// buffer first so a template error never produces half a page.
func serveHTML(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
