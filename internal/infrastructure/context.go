package infrastructure

import (
	"context"
	"log/slog"
)

type scopeKey int

const (
	traceIDKey scopeKey = iota
	clientIDKey
	datasetVersionKey
)

// WithTraceID tags ctx with the id of the request or connection it serves.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace id of ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithClientID tags ctx with a websocket client id.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientID returns the websocket client id of ctx, or "".
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// WithDatasetVersion tags ctx with the dataset version a computation reads.
func WithDatasetVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, datasetVersionKey, version)
}

// GetDatasetVersion returns the dataset version of ctx, or "".
func GetDatasetVersion(ctx context.Context) string {
	v, _ := ctx.Value(datasetVersionKey).(string)
	return v
}

// scopeAttrs lists the scope values set on ctx, as log attributes.
func scopeAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if id := GetTraceID(ctx); id != "" {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	if id := GetClientID(ctx); id != "" {
		attrs = append(attrs, slog.String("client_id", id))
	}
	if v := GetDatasetVersion(ctx); v != "" {
		attrs = append(attrs, slog.String("dataset_version", v))
	}
	return attrs
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
