package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/config"
)

func testOTelConfig() *OTelConfig {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.Registry = promclient.NewRegistry()
	return cfg
}

func scrape(t *testing.T, p *OTelProviders) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:   "svc",
		TraceExporter: "stdout",
		Environment:   "staging",
		SampleRatio:   0.25,
	})
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.NotEmpty(t, cfg.ServiceVersion)
}

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(), NewDiscardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
	assert.NoError(t, providers.Shutdown(ctx), "second shutdown is a no-op")
}

func TestInitializeOTel_StdoutTracesOnly(t *testing.T) {
	cfg := testOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.EnableMetrics = false

	providers, err := InitializeOTel(cfg, NewDiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	cfg := testOTelConfig()
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, NewDiscardLogger())
	assert.ErrorContains(t, err, `unsupported trace exporter "jaeger"`)
}

func TestMetrics_Exported(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(), NewDiscardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := NewMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordDashboardBuild(ctx, m, 42, 15*time.Millisecond, false)
	m.DashboardCacheHits.Add(ctx, 1)
	RecordDatasetReload(ctx, m, 185686, nil)

	text := scrape(t, providers)
	for _, name := range []string{
		"dashboard_builds_total",
		"dashboard_build_duration_seconds",
		"dashboard_cache_hits_total",
		"dataset_reloads_total",
		"dataset_rows",
	} {
		assert.Contains(t, text, name)
	}
}

func TestNewNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		ctx := context.Background()
		RecordDashboardBuild(ctx, m, 0, time.Millisecond, true)
		RecordDatasetReload(ctx, m, 0, assert.AnError)
		m.WebSocketSessions.Add(ctx, 1)
		RecordDashboardBuild(ctx, nil, 0, 0, true)
		RecordDatasetReload(ctx, nil, 0, nil)
	})
}
