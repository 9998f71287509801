package websocket

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/infrastructure"
	"salesdash/pkg/contracts/domain"
	"salesdash/pkg/contracts/events"
)

const waitTimeout = 2 * time.Second

// received is the decoded form of a server frame.
type received struct {
	ID      string             `json:"id"`
	Type    events.MessageType `json:"type"`
	TraceID string             `json:"trace_id"`
	Data    json.RawMessage    `json:"data"`
}

func decodeAll(t *testing.T, msgs []frame) []received {
	t.Helper()
	out := make([]received, 0, len(msgs))
	for _, m := range msgs {
		var r received
		require.NoError(t, json.Unmarshal(m.Data, &r))
		out = append(out, r)
	}
	return out
}

func hasType(t events.MessageType) func([]frame) bool {
	return func(msgs []frame) bool {
		for _, m := range msgs {
			var r received
			if json.Unmarshal(m.Data, &r) == nil && r.Type == t {
				return true
			}
		}
		return false
	}
}

func ofType(msgs []received, t events.MessageType) []received {
	var out []received
	for _, m := range msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func newTestHub(t *testing.T, b DashboardBuilder, ds DatasetStatus) *Hub {
	t.Helper()
	hub := NewHub(HubConfig{
		Builder:  b,
		Dataset:  ds,
		Logger:   infrastructure.NewDiscardLogger(),
		PongWait: 5 * time.Second,
	})
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func connect(t *testing.T, hub *Hub) (*Client, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	client := ServeConn(hub, conn, "trace-123")
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeConnect)), "no connect message")
	return client, conn
}

func TestClient_FilterRendersDashboard(t *testing.T) {
	b := newFakeBuilder()
	hub := newTestHub(t, b, nil)
	_, conn := connect(t, hub)

	conn.push(`{"id":"r1","type":"filter","selection":{"products":["iPhone"],"cities":null,"months":["April","May"]}}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeDashboard)))

	dashboards := ofType(decodeAll(t, conn.written()), events.MessageTypeDashboard)
	require.Len(t, dashboards, 1)
	assert.Equal(t, "r1", dashboards[0].ID)
	assert.Equal(t, "trace-123", dashboards[0].TraceID)

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(dashboards[0].Data, &d))
	assert.Equal(t, 1, d.RowCount)

	calls := b.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"iPhone"}, calls[0].Products)
	assert.Nil(t, calls[0].Cities)
	assert.Equal(t, []string{"April", "May"}, calls[0].Months)
}

func TestClient_FilterWithoutSelectionMeansAll(t *testing.T) {
	b := newFakeBuilder()
	hub := newTestHub(t, b, nil)
	_, conn := connect(t, hub)

	conn.push(`{"id":"r1","type":"filter"}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeDashboard)))

	calls := b.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Products)
	assert.Nil(t, calls[0].Cities)
	assert.Nil(t, calls[0].Months)
}

func TestClient_EmptyFacetIsKept(t *testing.T) {
	b := newFakeBuilder()
	hub := newTestHub(t, b, nil)
	_, conn := connect(t, hub)

	conn.push(`{"id":"r1","type":"filter","selection":{"cities":[]}}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeDashboard)))

	calls := b.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Cities)
	assert.Empty(t, calls[0].Cities)
}

func TestClient_HeartbeatIsIgnored(t *testing.T) {
	b := newFakeBuilder()
	hub := newTestHub(t, b, nil)
	_, conn := connect(t, hub)

	conn.push(`{"type":"heartbeat"}`)
	conn.push(`{"id":"r2","type":"filter"}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeDashboard)))

	msgs := decodeAll(t, conn.written())
	assert.Empty(t, ofType(msgs, events.MessageTypeError))
	assert.Len(t, b.Calls(), 1)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantCode string
		wantID   string
	}{
		{
			name:     "invalid json",
			frame:    `{"type":`,
			wantCode: CodeInvalidMessage,
		},
		{
			name:     "unknown type",
			frame:    `{"id":"x1","type":"subscribe"}`,
			wantCode: CodeUnknownMessage,
			wantID:   "x1",
		},
		{
			name:     "facet value too long",
			frame:    `{"id":"x2","type":"filter","selection":{"products":["` + strings.Repeat("a", 200) + `"]}}`,
			wantCode: CodeValidationFailed,
			wantID:   "x2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBuilder()
			hub := newTestHub(t, b, nil)
			_, conn := connect(t, hub)

			conn.push(tt.frame)
			require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeError)))

			errs := ofType(decodeAll(t, conn.written()), events.MessageTypeError)
			require.Len(t, errs, 1)

			var payload events.ErrorPayload
			require.NoError(t, json.Unmarshal(errs[0].Data, &payload))
			assert.Equal(t, tt.wantCode, payload.Code)
			assert.Equal(t, tt.wantID, payload.RequestID)
			assert.False(t, payload.Retry)
			assert.Empty(t, b.Calls())
		})
	}
}

func TestClient_RenderFailure(t *testing.T) {
	b := newFakeBuilder()
	b.err = errors.New("sales dataset is not loaded")
	hub := newTestHub(t, b, nil)
	_, conn := connect(t, hub)

	conn.push(`{"id":"r9","type":"filter"}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeError)))

	errs := ofType(decodeAll(t, conn.written()), events.MessageTypeError)
	require.Len(t, errs, 1)

	var payload events.ErrorPayload
	require.NoError(t, json.Unmarshal(errs[0].Data, &payload))
	assert.Equal(t, CodeRenderFailed, payload.Code)
	assert.Equal(t, "r9", payload.RequestID)
	assert.True(t, payload.Retry)
}

func TestClient_LatestSelectionWins(t *testing.T) {
	b := newFakeBuilder()
	b.block["slow"] = true
	hub := newTestHub(t, b, nil)
	client, conn := connect(t, hub)

	conn.push(`{"id":"old","type":"filter","selection":{"products":["slow"]}}`)
	conn.push(`{"id":"new","type":"filter","selection":{"products":["fast","faster"]}}`)
	require.True(t, conn.waitFor(waitTimeout, hasType(events.MessageTypeDashboard)))

	require.Eventually(t, func() bool { return client.session.Generation() == 2 }, waitTimeout, 5*time.Millisecond)
	dashboards := ofType(decodeAll(t, conn.written()), events.MessageTypeDashboard)
	require.Len(t, dashboards, 1)
	assert.Equal(t, "new", dashboards[0].ID)
}

func TestClient_ReadLimit(t *testing.T) {
	hub := newTestHub(t, newFakeBuilder(), nil)
	_, conn := connect(t, hub)

	assert.Equal(t, int64(maxMessageSize), conn.readLimit())
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := newTestHub(t, newFakeBuilder(), nil)
	_, conn := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitTimeout, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitTimeout, 5*time.Millisecond)
}

func TestClient_WriteErrorClosesConnection(t *testing.T) {
	hub := newTestHub(t, newFakeBuilder(), nil)
	conn := newFakeConn()
	conn.failWrites(errors.New("broken pipe"))

	ServeConn(hub, conn, "")

	assert.Eventually(t, conn.isClosed, waitTimeout, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitTimeout, 5*time.Millisecond)
}
