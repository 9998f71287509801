package websocket

import (
	"context"
	"net"
	"time"

	"salesdash/pkg/contracts/domain"
)

// Connection is the subset of *websocket.Conn a client uses.
type Connection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
	Close() error
}

// DashboardBuilder renders the dashboard of a selection. Build must return
// promptly with ctx.Err() once ctx is cancelled.
type DashboardBuilder interface {
	Build(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error)
}

// DatasetStatus feeds the greeting sent to new connections.
type DatasetStatus interface {
	Ready() bool
	DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error)
}
