package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"idregistry/pkg/requestcontext"
)

// Throttle limits requests per caller with a sliding window, so a burst at
// a window boundary cannot double the effective rate.
type Throttle struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	limit  int
	window time.Duration
}

// NewThrottle allows limit requests per caller within window.
func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// allow records one request for key and reports whether it fits the limit,
// plus when the window frees up again.
func (t *Throttle) allow(key string, now time.Time) (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.window)
	stamps := t.windows[key]
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	stamps = stamps[i:]

	if len(stamps) >= t.limit {
		t.windows[key] = stamps
		return false, stamps[0].Add(t.window)
	}
	t.windows[key] = append(stamps, now)
	return true, time.Time{}
}

// Middleware rejects over-limit callers with 429 and a Retry-After hint.
// Callers are keyed by address, so one noisy relayer cannot starve others.
func (t *Throttle) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := string(requestcontext.Caller(r.Context()))
			if key == "" {
				key = r.RemoteAddr
			}

			ok, resetAt := t.allow(key, time.Now())
			if !ok {
				retry := max(int(time.Until(resetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.WarnContext(r.Context(), "request throttled", "caller", key)
				http.Error(w, `{"error":"rate_limited"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
