// Package events contains the websocket message contracts of the sales
// dashboard.
package events

import (
	"encoding/json"
	"time"

	"salesdash/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeFilter    MessageType = "filter"
	MessageTypeHeartbeat MessageType = "heartbeat"

	// Server to client
	MessageTypeConnect       MessageType = "connect"
	MessageTypeDashboard     MessageType = "dashboard"
	MessageTypeDatasetReload MessageType = "dataset:reloaded"
	MessageTypeSystemStatus  MessageType = "system:status"
	MessageTypeError         MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage is a server to client message.
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps a message of type t carrying data.
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{Type: t, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}

// ClientMessage is a message sent by the browser. Selection is only read
// for filter messages; a nil facet means every value.
type ClientMessage struct {
	ID        string            `json:"id,omitempty"`
	Type      MessageType       `json:"type"`
	Selection *domain.Selection `json:"selection,omitempty"`
}

// DecodeClientMessage parses a raw client frame.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(raw, &msg)
	return msg, err
}

// NewDashboardMessage wraps a rendered dashboard. The message ID echoes
// the ID of the filter message it answers.
func NewDashboardMessage(requestID string, d *domain.Dashboard) WebSocketMessage {
	msg := NewMessage(MessageTypeDashboard, d)
	msg.ID = requestID
	return msg
}

// DatasetReloadedEvent announces that a new dataset version is live.
type DatasetReloadedEvent struct {
	Dataset domain.DatasetInfo `json:"dataset"`
}

// ErrorPayload describes a failure reported over the socket.
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Retry     bool   `json:"retry"`
}

// NewErrorMessage builds an error message.
func NewErrorMessage(code, message, requestID string, retry bool) WebSocketMessage {
	return NewMessage(MessageTypeError, ErrorPayload{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Retry:     retry,
	})
}

// SystemStatus is the payload of connect messages, and of system:status
// broadcasts after a background reload fails.
type SystemStatus struct {
	ClientID       string `json:"client_id,omitempty"`
	DatasetVersion string `json:"dataset_version,omitempty"`
	Ready          bool   `json:"ready"`
	ReloadError    string `json:"reload_error,omitempty"`
}
