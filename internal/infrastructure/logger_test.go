package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	again, err := InitializeLogger(config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.Same(t, logger, again)

	logger.Info("dataset built", "rows", 3)
	require.NoError(t, CloseLogFile())
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "dataset built", entry["msg"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "source")
}

func TestNewLogger_BadFilePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
}

func TestScopeInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "debug")

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "request")
	ctx = WithDatasetVersion(WithClientID(ctx, "client-1"), "v7")
	logger.With("component", "test").InfoContext(ctx, "render")
	logger.Info("bare")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3)

	assert.Equal(t, "trace-123", entries[0]["trace_id"])
	assert.NotContains(t, entries[0], "client_id")

	assert.Equal(t, "trace-123", entries[1]["trace_id"])
	assert.Equal(t, "client-1", entries[1]["client_id"])
	assert.Equal(t, "v7", entries[1]["dataset_version"])
	assert.Equal(t, "test", entries[1]["component"])

	assert.NotContains(t, entries[2], "trace_id")
	assert.NotContains(t, entries[2], "dataset_version")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "info")

	logger.InfoContext(WithTraceID(context.Background(), "abc"), "loaded", slog.Int("rows", 2))

	out := buf.String()
	assert.Contains(t, out, "msg=loaded")
	assert.Contains(t, out, "rows=2")
	assert.Contains(t, out, "trace_id=abc")
	assert.NotContains(t, out, "source=")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		"warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"Error":    slog.LevelError,
		"":         slog.LevelInfo,
		"nonsense": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "warn")
	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetClientID(ctx))
	assert.Empty(t, GetDatasetVersion(ctx))
	assert.Empty(t, scopeAttrs(ctx))

	var buf bytes.Buffer
	WithComponent(NewLoggerWithWriter(&buf, "json", "info"), "dashboard").Info("built")
	assert.Contains(t, buf.String(), `"component":"dashboard"`)

	NewDiscardLogger().Error("nothing")
}
