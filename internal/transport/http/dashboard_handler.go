package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/exporter"
	appmiddleware "salesdash/internal/middleware"
	api "salesdash/pkg/contracts/api/v1"
	"salesdash/pkg/contracts/domain"
)

// Query parameter names of the three facets. Each may be repeated.
const (
	ParamProduct = "product"
	ParamCity    = "city"
	ParamMonth   = "month"
)

// DashboardHandler serves the dashboard, its facet options, the raw data
// view and exports of the filtered rows.
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *appmiddleware.ValidationMiddleware
	query        *appmiddleware.QueryParamValidator
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validation:   appmiddleware.NewValidationMiddleware(logger, errorHandler),
		query:        appmiddleware.NewQueryParamValidator(logger, errorHandler),
		now:          time.Now,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", h.GetDashboard)
		r.With(appmiddleware.ContentTypeValidator("application/json"), h.validation.ValidateRequest).Post("/", h.PostDashboard)
		r.Get("/options", h.GetOptions)
		r.Get("/rows", h.GetRows)
	})

	// Downloads set their own content type.
	r.Get("/export", h.Export)
	r.Get("/export.csv", h.ExportAs(exporter.FormatCSV))
	r.Get("/export.xlsx", h.ExportAs(exporter.FormatXLSX))

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectionFromQuery(w, r)
	if !ok {
		return
	}
	h.renderDashboard(w, r, sel)
}

// PostDashboard handles POST /api/dashboard with a JSON selection
func (h *DashboardHandler) PostDashboard(w http.ResponseWriter, r *http.Request) {
	var req api.DashboardRequest
	if r.ContentLength != 0 {
		if err := h.validation.DecodeAndValidate(r, &req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}
	h.renderDashboard(w, r, req.Selection())
}

func (h *DashboardHandler) renderDashboard(w http.ResponseWriter, r *http.Request, sel domain.Selection) {
	reqID := middleware.GetReqID(r.Context())

	dashboard, err := h.service.Build(r.Context(), sel)
	if err != nil {
		h.logger.WarnContext(r.Context(), "dashboard build failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dashboard served",
		slog.String("request_id", reqID),
		slog.Int("rows", dashboard.RowCount),
		slog.Bool("empty", dashboard.Empty),
	)
	render.JSON(w, r, dashboard)
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

// GetRows handles GET /api/dashboard/rows
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectionFromQuery(w, r)
	if !ok {
		return
	}
	offset, ok := h.query.ValidateInt(w, r, "offset", 0, math.MaxInt32, 0)
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, api.MaxPageSize, api.DefaultPageSize)
	if !ok {
		return
	}

	page, err := h.service.Rows(r.Context(), sel, offset, limit)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// Export handles GET /api/dashboard/export?format=csv|xlsx
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.query.ValidateEnum(w, r, "format", exporter.Formats, string(exporter.FormatCSV))
	if !ok {
		return
	}
	format, err := exporter.ParseFormat(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}
	h.export(w, r, format)
}

// ExportAs returns a handler exporting in a fixed format, for
// GET /api/dashboard/export.csv and /export.xlsx
func (h *DashboardHandler) ExportAs(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.export(w, r, format)
	}
}

func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, format exporter.Format) {
	sel, ok := h.selectionFromQuery(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), sel)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	// Buffer the file so a failed export can still be reported as a problem.
	var buf bytes.Buffer
	n, err := exporter.Write(r.Context(), &buf, format, view)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, apierrors.ExportError(string(format), err))
		return
	}

	filename := format.Filename(h.now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("filename", filename),
		slog.Int("rows", n),
	)
}

// selectionFromQuery reads the facet parameters. An absent parameter
// selects every value; a parameter present with only empty values, such as
// "product=", selects nothing.
func (h *DashboardHandler) selectionFromQuery(w http.ResponseWriter, r *http.Request) (domain.Selection, bool) {
	q := r.URL.Query()
	req := api.SelectionRequest{
		Products: facetValues(q, ParamProduct),
		Cities:   facetValues(q, ParamCity),
		Months:   facetValues(q, ParamMonth),
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.Selection{}, false
	}
	return req.Selection(), true
}

func facetValues(q url.Values, name string) []string {
	raw, present := q[name]
	if !present {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
