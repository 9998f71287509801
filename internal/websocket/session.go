package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"salesdash/internal/infrastructure"
	"salesdash/pkg/contracts/domain"
)

// RenderResult is the outcome of one session render. Err is nil when
// Dashboard is set.
type RenderResult struct {
	RequestID string
	Dashboard *domain.Dashboard
	Err       error
}

// Session owns the selection of one connection and keeps at most one
// render in flight. Submitting a new selection cancels the previous render;
// a render that finishes after being superseded is discarded.
type Session struct {
	builder DashboardBuilder
	deliver func(RenderResult)
	metrics *infrastructure.Metrics
	logger  *slog.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	selection  domain.Selection
}

// NewSession creates a session. deliver is called with the session lock
// held, so it must not block or call back into the session.
func NewSession(parent context.Context, builder DashboardBuilder, deliver func(RenderResult), metrics *infrastructure.Metrics, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NewNoopMetrics()
	}
	ctx, stop := context.WithCancel(parent)
	return &Session{
		builder: builder,
		deliver: deliver,
		metrics: metrics,
		logger:  logger,
		ctx:     ctx,
		stop:    stop,
	}
}

// Submit starts rendering sel and returns its generation.
func (s *Session) Submit(requestID string, sel domain.Selection) uint64 {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.metrics.DashboardSuperseded.Add(s.ctx, 1)
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.selection = sel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		d, err := s.builder.Build(ctx, sel)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			s.logger.DebugContext(ctx, "discarding superseded render",
				slog.String("request_id", requestID),
				slog.Uint64("generation", gen))
			return
		}
		s.cancel = nil
		if err != nil && s.ctx.Err() != nil && errors.Is(err, context.Canceled) {
			// The session is closing.
			return
		}
		s.deliver(RenderResult{RequestID: requestID, Dashboard: d, Err: err})
	}()

	return gen
}

// Selection returns the most recently submitted selection.
func (s *Session) Selection() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Generation returns the number of selections submitted so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels any render in flight and waits for it to return.
func (s *Session) Close() {
	s.stop()
	s.wg.Wait()
}
