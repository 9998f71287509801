package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds the application instruments.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	DashboardBuilds        metric.Int64Counter
	DashboardBuildDuration metric.Float64Histogram
	DashboardCacheHits     metric.Int64Counter
	DashboardCacheMisses   metric.Int64Counter
	DashboardSuperseded    metric.Int64Counter

	DatasetRows    metric.Int64Gauge
	DatasetReloads metric.Int64Counter

	WebSocketSessions metric.Int64UpDownCounter
}

// instruments records creation errors so NewMetrics can declare every
// instrument in one literal and check once.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return c
}

func (in *instruments) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return c
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.errs = append(in.errs, err)
	return h
}

func (in *instruments) gauge(name, desc string) metric.Int64Gauge {
	g, err := in.meter.Int64Gauge(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return g
}

// NewMetrics creates the instruments on meter, or on a no-op meter when
// meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(InstrumentationName)
	}
	in := &instruments{meter: meter}

	m := &Metrics{
		HTTPRequestsTotal:   in.counter("http_requests_total", "HTTP requests by route and status"),
		HTTPRequestDuration: in.seconds("http_request_duration_seconds", "HTTP request latency"),
		HTTPActiveRequests:  in.upDown("http_active_requests", "HTTP requests in flight"),

		DashboardBuilds:        in.counter("dashboard_builds_total", "Dashboards computed"),
		DashboardBuildDuration: in.seconds("dashboard_build_duration_seconds", "Time spent filtering and aggregating a dashboard"),
		DashboardCacheHits:     in.counter("dashboard_cache_hits_total", "Dashboards served from the selection cache"),
		DashboardCacheMisses:   in.counter("dashboard_cache_misses_total", "Dashboards that had to be computed"),
		DashboardSuperseded:    in.counter("dashboard_renders_superseded_total", "Session renders discarded for a newer selection"),

		DatasetRows:    in.gauge("dataset_rows", "Rows in the loaded dataset after cleaning"),
		DatasetReloads: in.counter("dataset_reloads_total", "Dataset rebuilds by outcome"),

		WebSocketSessions: in.upDown("websocket_sessions", "Connected dashboard sessions"),
	}
	if err := errors.Join(in.errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNoopMetrics returns instruments that record nothing.
func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(nil)
	return m
}

// RecordDashboardBuild counts one computed dashboard and notes it on the
// current span.
func RecordDashboardBuild(ctx context.Context, m *Metrics, rows int, elapsed time.Duration, empty bool) {
	if m == nil {
		return
	}
	set := metric.WithAttributes(attribute.Bool("empty", empty))
	m.DashboardBuilds.Add(ctx, 1, set)
	m.DashboardBuildDuration.Record(ctx, elapsed.Seconds(), set)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("dashboard.built", trace.WithAttributes(
			attribute.Int("rows", rows),
			attribute.Bool("empty", empty),
		))
	}
}

// RecordDatasetReload counts a rebuild by outcome. The row gauge only
// moves on success.
func RecordDatasetReload(ctx context.Context, m *Metrics, rows int, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.DatasetReloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome)))
	if err == nil {
		m.DatasetRows.Record(ctx, int64(rows))
	}
}
