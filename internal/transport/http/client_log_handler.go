package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
	appmiddleware "salesdash/internal/middleware"
)

// ClientLogEntry is one line reported by the dashboard page, usually a
// chart that failed to render.
type ClientLogEntry struct {
	Level   string                 `json:"level" validate:"omitempty,max=16"`
	Message string                 `json:"message" validate:"required,max=2048"`
	Chart   string                 `json:"chart,omitempty" validate:"max=128"`
	Source  string                 `json:"source,omitempty" validate:"max=256"`
	Data    map[string]interface{} `json:"data,omitempty" validate:"max=32"`
}

// ClientLogHandler forwards browser log lines into the server log under
// the "client" group, tagged with the request's trace id.
type ClientLogHandler struct {
	logger       *slog.Logger
	validation   *appmiddleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
}

func NewClientLogHandler(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		validation:   appmiddleware.NewValidationMiddleware(logger, errorHandler),
		errorHandler: errorHandler,
	}
}

// Handle handles POST /api/client-log.
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var entry ClientLogEntry
	if err := h.validation.DecodeAndValidate(r, &entry); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := make([]any, 0, 4)
	if entry.Source != "" {
		attrs = append(attrs, slog.String("source", entry.Source))
	}
	if entry.Chart != "" {
		attrs = append(attrs, slog.String("chart", entry.Chart))
	}
	if len(entry.Data) > 0 {
		attrs = append(attrs, slog.Any("data", entry.Data))
	}
	attrs = append(attrs, slog.String("user_agent", r.UserAgent()))

	h.logger.LogAttrs(r.Context(), infrastructure.ParseLevel(entry.Level), entry.Message,
		slog.Group("client", attrs...))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]bool{"accepted": true})
}
