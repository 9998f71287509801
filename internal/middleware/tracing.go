package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"salesdash/internal/infrastructure"
)

// Tracing opens a server span per request and records the request counters
// and latency histogram against the chi route pattern.
type Tracing struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    *infrastructure.Metrics
	logger     *slog.Logger
}

// NewTracing builds the request instrumentation from the process providers.
// When metrics is nil the instruments are created on the providers' meter.
func NewTracing(providers *infrastructure.OTelProviders, metrics *infrastructure.Metrics) (*Tracing, error) {
	if providers == nil {
		return nil, errors.New("otel providers are required")
	}
	if metrics == nil {
		m, err := infrastructure.NewMetrics(providers.Meter)
		if err != nil {
			return nil, err
		}
		metrics = m
	}
	logger := providers.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracing{
		tracer:     providers.Tracer,
		propagator: otel.GetTextMapPropagator(),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "http.tracing")),
	}, nil
}

// Handler instruments next.
func (t *Tracing) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := t.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := t.tracer.Start(ctx, r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
				semconv.ClientAddress(clientAddr(r)),
				semconv.UserAgentOriginal(r.UserAgent()),
			))
		defer span.End()

		if sc := span.SpanContext(); sc.IsValid() {
			ctx = infrastructure.WithTraceID(ctx, sc.TraceID().String())
		}

		t.metrics.HTTPActiveRequests.Add(ctx, 1)
		defer t.metrics.HTTPActiveRequests.Add(ctx, -1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			semconv.HTTPRoute(route),
			semconv.HTTPResponseStatusCode(status),
			semconv.HTTPResponseBodySize(ww.BytesWritten()),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		set := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.Int("status_code", status),
		)
		t.metrics.HTTPRequestsTotal.Add(ctx, 1, set)
		t.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), set)

		t.logger.DebugContext(ctx, "request traced",
			slog.String("route", route),
			slog.Int("status_code", status),
			slog.Duration("duration", elapsed))
	})
}

// routePattern is the matched chi pattern, which keeps metric cardinality
// bounded. Unrouted requests fall back to the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// clientAddr is the peer host without its port. RealIP runs first, so
// proxy headers are already folded into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TraceUpgrade starts a span around a websocket upgrade. It leaves the
// ResponseWriter untouched so the handler can still hijack it.
func TraceUpgrade(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := otel.Tracer(infrastructure.InstrumentationName + "/websocket")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "websocket upgrade",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRoute(routePattern(r)),
					semconv.ClientAddress(clientAddr(r)),
					attribute.String("websocket.origin", r.Header.Get("Origin")),
				))
			defer span.End()

			if sc := span.SpanContext(); sc.IsValid() {
				ctx = infrastructure.WithTraceID(ctx, sc.TraceID().String())
			}
			logger.DebugContext(ctx, "websocket upgrade requested",
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("remote_addr", clientAddr(r)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
