package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server with timeouts taken from the configuration
// and graceful shutdown helpers.
type HTTPServer struct {
	server *http.Server
}

func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
	return &HTTPServer{server: srv}
}

// Addr returns the listen address the server binds to.
func (s *HTTPServer) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start runs the HTTP server in the current goroutine until Shutdown.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// up to the context deadline.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
