package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"salesdash/internal/infrastructure"
	"salesdash/internal/middleware"
	"salesdash/pkg/contracts/domain"
	"salesdash/pkg/contracts/events"
)

// Default keepalive settings
const (
	DefaultPongWait   = 60 * time.Second
	DefaultPingPeriod = (DefaultPongWait * 9) / 10
)

// HubConfig configures a Hub. Builder is required.
type HubConfig struct {
	Builder DashboardBuilder
	// Dataset, when set, is reported in the greeting of new connections.
	Dataset DatasetStatus
	Metrics *infrastructure.Metrics
	Logger  *slog.Logger

	PingPeriod time.Duration
	PongWait   time.Duration
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the Run loop adds or drops clients.
type Hub struct {
	builder  DashboardBuilder
	dataset  DatasetStatus
	metrics  *infrastructure.Metrics
	logger   *slog.Logger
	validate *validator.Validate

	pingPeriod time.Duration
	pongWait   time.Duration

	// Registered clients
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = infrastructure.NewNoopMetrics()
	}
	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = DefaultPongWait
	}
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = (pongWait * 9) / 10
	}

	return &Hub{
		builder:    cfg.Builder,
		dataset:    cfg.Dataset,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		validate:   middleware.NewValidator(),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a new goroutine. It is idempotent.
func (h *Hub) Start() {
	h.startOnce.Do(func() { go h.run() })
}

// run is the hub's main loop. It returns after Stop, dropping every client.
func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.WebSocketSessions.Add(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			client.SendMessage(events.NewMessage(events.MessageTypeConnect, h.status(ctx, client)))

		case client := <-h.unregister:
			h.drop(client, "disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failed := 0
			for _, client := range clients {
				if !client.Send(message) {
					failed++
					h.drop(client, "send buffer full")
				}
			}
			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("fail_count", failed),
				slog.Int("message_size", len(message)))
		}
	}
}

func (h *Hub) drop(client *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.close()
	ctx := client.context()
	h.metrics.WebSocketSessions.Add(ctx, -1)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.String("reason", reason),
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) status(ctx context.Context, client *Client) events.SystemStatus {
	status := events.SystemStatus{ClientID: client.id}
	if h.dataset != nil {
		status.Ready = h.dataset.Ready()
		if info, err := h.dataset.DatasetInfo(ctx); err == nil {
			status.DatasetVersion = info.Version
		}
	}
	return status
}

// Register adds a client to the hub. It is a no-op once the hub stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg events.WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling broadcast message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// BroadcastDatasetReloaded tells every client that a new dataset version
// is live, so open dashboards can re-request their selection.
func (h *Hub) BroadcastDatasetReloaded(info domain.DatasetInfo) {
	h.Broadcast(events.NewMessage(events.MessageTypeDatasetReload, events.DatasetReloadedEvent{Dataset: info}))
}

// BroadcastReloadFailed tells every client that a background reload
// failed. The previous dataset version stays live.
func (h *Hub) BroadcastReloadFailed(ctx context.Context, err error) {
	status := events.SystemStatus{ReloadError: err.Error()}
	if h.dataset != nil {
		status.Ready = h.dataset.Ready()
		if info, infoErr := h.dataset.DatasetInfo(ctx); infoErr == nil {
			status.DatasetVersion = info.Version
		}
	}
	h.Broadcast(events.NewMessage(events.MessageTypeSystemStatus, status))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub and waits for the loop to exit. It is
// idempotent; stopping a hub that never started returns at once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		started := true
		h.startOnce.Do(func() {
			started = false
			close(h.done)
		})
		if started {
			<-h.done
		}
	})
}
