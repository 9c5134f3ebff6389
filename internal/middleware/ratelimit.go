package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra/counter"
)

// RateLimit rejects clients exceeding limit requests per window. Counts live
// in the injected store, so the limit holds across API replicas when the
// store is Redis-backed. When the store errors the request is let through;
// throttling is best-effort, not a security boundary.
func RateLimit(store counter.Store, limit int, window time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r)
			count, err := store.Incr(r.Context(), "ratelimit:"+ip, window)
			if err != nil {
				logger.Warn().Err(err).Str("ip", ip).Msg("ratelimit: counter store unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				w.Header().Set("Retry-After", formatRetryAfter(window))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func formatRetryAfter(window time.Duration) string {
	seconds := int(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
