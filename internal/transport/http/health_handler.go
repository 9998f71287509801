package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salesdash/internal/services"
)

// HealthHandler serves the probe endpoints under /api/health and the
// build description at /api/version.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{service: service, logger: logger.With(slog.String("handler", "health"))}
}

// Routes returns the health routes, mounted at /api/health.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		h.writeReport(w, r, h.service.HealthCheck(r.Context()))
	})
	r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
		h.writeReport(w, r, h.service.LivenessCheck(r.Context()))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		h.writeReport(w, r, h.service.ReadinessCheck(r.Context()))
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, h.service.SystemStats(r.Context()))
	})
	return r
}

// writeReport answers 503 for not_ready so load balancers hold traffic
// until the first dataset build. A degraded process is still live.
func (h *HealthHandler) writeReport(w http.ResponseWriter, r *http.Request, report services.Report) {
	if report.Status == services.StatusNotReady {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, report)
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
