package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"salesdash/internal/infrastructure"
	api "salesdash/pkg/contracts/api/v1"
	"salesdash/pkg/contracts/domain"
	"salesdash/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer. A filter message lists at
	// most every product, city and month.
	maxMessageSize = 64 << 10

	// Outbound frames buffered per client before it is dropped as slow
	sendBufferSize = 32
)

// Error codes sent in error messages.
const (
	CodeInvalidMessage   = "INVALID_MESSAGE"
	CodeUnknownMessage   = "UNKNOWN_MESSAGE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeRenderFailed     = "RENDER_FAILED"
)

// Client is a middleman between the websocket connection and the hub. Each
// client owns one dashboard session.
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	// Closed when the hub drops the client
	done      chan struct{}
	closeOnce sync.Once

	session *Session

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

func newClient(hub *Hub, conn Connection, traceID string) *Client {
	id := uuid.NewString()
	if traceID == "" {
		traceID = id
	}

	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		id:          id,
		traceID:     traceID,
		remoteAddr:  remote,
		connectedAt: time.Now(),
		logger: hub.logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
	c.session = NewSession(c.context(), hub.builder, c.deliver, hub.metrics, c.logger)
	return c
}

// ID returns the client identifier.
func (c *Client) ID() string {
	return c.id
}

// context carries the trace id of the upgrade request and the client id
// into logs.
func (c *Client) context() context.Context {
	return infrastructure.WithClientID(infrastructure.WithTraceID(context.Background(), c.traceID), c.id)
}

// Send queues a frame without blocking. It reports false when the client
// is gone or its buffer is full.
func (c *Client) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// SendMessage marshals and queues msg.
func (c *Client) SendMessage(msg events.WebSocketMessage) bool {
	msg.TraceID = c.traceID
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.context(), "failed to marshal message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return false
	}
	return c.Send(data)
}

// close stops the write pump. Only the hub calls it.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver sends a finished render. Called by the session.
func (c *Client) deliver(res RenderResult) {
	if res.Err != nil {
		c.logger.WarnContext(c.context(), "dashboard render failed",
			slog.String("request_id", res.RequestID),
			slog.String("error", res.Err.Error()))
		c.SendMessage(events.NewErrorMessage(CodeRenderFailed, res.Err.Error(), res.RequestID, true))
		return
	}
	if !c.SendMessage(events.NewDashboardMessage(res.RequestID, res.Dashboard)) {
		c.logger.WarnContext(c.context(), "dashboard dropped, client buffer full",
			slog.String("request_id", res.RequestID))
	}
}

// handleMessage dispatches one inbound frame.
func (c *Client) handleMessage(raw []byte) {
	msg, err := events.DecodeClientMessage(raw)
	if err != nil {
		c.SendMessage(events.NewErrorMessage(CodeInvalidMessage, "message is not valid JSON", "", false))
		return
	}

	switch msg.Type {
	case events.MessageTypeHeartbeat:
		c.logger.DebugContext(c.context(), "Heartbeat received")

	case events.MessageTypeFilter:
		sel := domain.Selection{}
		if msg.Selection != nil {
			sel = *msg.Selection
		}
		req := api.SelectionRequest{Products: sel.Products, Cities: sel.Cities, Months: sel.Months}
		if err := c.hub.validate.Struct(req); err != nil {
			c.SendMessage(events.NewErrorMessage(CodeValidationFailed, err.Error(), msg.ID, false))
			return
		}
		gen := c.session.Submit(msg.ID, sel)
		c.logger.DebugContext(c.context(), "filter received",
			slog.String("request_id", msg.ID),
			slog.Uint64("generation", gen))

	default:
		c.SendMessage(events.NewErrorMessage(CodeUnknownMessage, "unsupported message type "+string(msg.Type), msg.ID, false))
	}
}

// ReadPump pumps messages from the websocket connection to the session.
// It owns the connection's read side and unregisters the client on exit.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.session.Close()
		c.hub.Unregister(c)
		c.conn.Close()
		c.logger.InfoContext(ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.WarnContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived.Add(1)
		c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection. It is
// the only writer of the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	ctx := c.context()
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(ctx, "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
