package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/logging"
)

// RateLimitConfig is a token bucket: Requests per Window, refilled evenly,
// with up to Burst calls allowed back to back.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// KeyFunc groups requests that share one bucket. An empty key skips the limit.
type KeyFunc func(*http.Request) string

// IdentityKey buckets by the signed-in caller, falling back to the client IP.
func IdentityKey(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return "id:" + id.TokenIdentifier
	}
	return "ip:" + clientIP(r)
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterSet struct {
	limiters    sync.Map // key -> *rate.Limiter
	limit       rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(s.limit, s.burst))
	s.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters at most every five minutes. A limiter
// with a full bucket has not been used since it refilled.
func (s *limiterSet) maybeCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastCleanup) < 5*time.Minute {
		return
	}
	s.lastCleanup = time.Now()

	s.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(s.burst) {
			s.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit rejects requests over the configured budget with 429 and a
// Retry-After header in seconds.
func RateLimit(cfg RateLimitConfig, key KeyFunc) func(http.Handler) http.Handler {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	set := &limiterSet{
		limit:       rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := set.get(k)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()
			retryAfter := max(int(delay.Round(time.Second).Seconds()), 1)

			logging.FromContext(r.Context(), slog.Default()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","code":"RATE_LIMITED","message":"Too many requests. Please try again later."}`))
		})
	}
}
