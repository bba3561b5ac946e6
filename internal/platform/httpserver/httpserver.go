package httpserver

import (
	"net/http"
	"time"
)

type Option func(*http.Server)

// WithRequestTimeout sizes the write deadline so a handler running for up to d
// can still send its own timeout response.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d + 5*time.Second
		}
	}
}

// New builds the public HTTP server.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    16 << 10,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
