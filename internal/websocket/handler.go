package websocket

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	apierrors "salesdash/internal/errors"
)

// UpgradeConfig configures the HTTP upgrade of /ws.
type UpgradeConfig struct {
	// AllowedOrigins lists the Origin headers accepted. Requests without
	// an Origin header (same-origin tools, tests) are always accepted; "*"
	// accepts any origin.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// Handler upgrades HTTP requests and attaches the new connection to a hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the /ws handler.
func NewHandler(hub *Hub, cfg UpgradeConfig) *Handler {
	h := &Handler{
		hub:    hub,
		logger: hub.logger.With(slog.String("handler", "websocket")),
	}
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", cfg.AllowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			apierrors.WriteProblem(w, apierrors.NewProblemDetails(
				status,
				apierrors.TypeWebSocketUpgrade,
				http.StatusText(status),
				reason.Error(),
				r.URL.Path,
			).WithExtension("error_code", apierrors.CodeWebSocketUpgrade))
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("request_id", reqID))
		return
	}

	ServeConn(h.hub, conn, reqID)

	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))
}

// ServeConn registers conn with hub and starts its pumps. It returns the
// new client.
func ServeConn(hub *Hub, conn Connection, traceID string) *Client {
	client := newClient(hub, conn, traceID)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}
