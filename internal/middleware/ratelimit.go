package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
)

// maxClients bounds the number of per-address limiters kept. The least
// recently seen address is evicted first.
const maxClients = 4096

// RateLimiter limits requests per client IP with a token bucket each.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
	logger  *slog.Logger
}

// NewRateLimiter allows each client rps requests per second with bursts of
// burst requests.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	clients, _ := lru.New[string, *rate.Limiter](maxClients)
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: clients,
		logger:  logger.With(slog.String("component", "rate_limiter")),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.clients.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	if prev, ok, _ := rl.clients.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

// Handler rejects requests over budget with 429 and a Retry-After header
// telling the client when its next token is due.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		res := rl.limiter(client).Reserve()
		delay := res.Delay()
		if res.OK() && delay == 0 {
			next.ServeHTTP(w, r)
			return
		}
		res.Cancel()

		retry := 1
		if res.OK() {
			retry = int(math.Ceil(delay.Seconds()))
		}
		rl.logger.WarnContext(r.Context(), "rate limit exceeded",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("client", client),
			slog.Int("retry_after", retry))

		w.Header().Set("Retry-After", strconv.Itoa(retry))
		apierrors.WriteProblem(w, apierrors.ErrRateLimitExceeded.Problem(r.URL.Path).
			WithExtension("trace_id", infrastructure.GetTraceID(r.Context())))
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
