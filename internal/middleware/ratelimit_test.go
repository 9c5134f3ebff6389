package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"server/internal/infra/counter"
)

func TestRateLimitBlocksAboveLimit(t *testing.T) {
	store := counter.NewMemoryStore()
	handler := RateLimit(store, 2, time.Minute, zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.10:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitIsolatesClients(t *testing.T) {
	store := counter.NewMemoryStore()
	handler := RateLimit(store, 1, time.Minute, zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "198.51.100.10:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "198.51.100.20:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledWithoutStore(t *testing.T) {
	handler := RateLimit(nil, 1, time.Minute, zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitKeysOnSharedClientIP(t *testing.T) {
	// The limiter and the locale middleware identify clients with the same
	// helper, so a proxied client with junk ahead of its address in
	// X-Forwarded-For is still tracked as one client.
	store := counter.NewMemoryStore()
	handler := RateLimit(store, 1, time.Minute, zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	statuses := make([]int, 0, 2)
	for _, remote := range []string{"198.51.100.10:1234", "198.51.100.20:5678"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "unknown, 203.0.113.7")
		assert.Equal(t, "203.0.113.7", ClientIP(req))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{
			name:       "single ip",
			header:     "203.0.113.1",
			remoteAddr: "198.51.100.10:1234",
			want:       "203.0.113.1",
		},
		{
			name:       "multiple ips use first",
			header:     " 203.0.113.1 , 198.51.100.2 ",
			remoteAddr: "198.51.100.10:1234",
			want:       "203.0.113.1",
		},
		{
			name:       "invalid forwarded falls back",
			header:     "invalid",
			remoteAddr: "198.51.100.10:1234",
			want:       "198.51.100.10",
		},
		{
			name:       "ipv6 forwarded",
			header:     "2001:db8::1",
			remoteAddr: net.JoinHostPort("2001:db8::2", "443"),
			want:       "2001:db8::1",
		},
		{
			name:       "remote without port",
			header:     "invalid",
			remoteAddr: "203.0.113.1",
			want:       "203.0.113.1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
