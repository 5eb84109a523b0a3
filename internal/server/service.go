package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/facetbase/facetd/internal/server/ratelimit"
)

type serverImpl struct {
	cfg    Config
	logger *slog.Logger

	// HTTP State
	httpMux    *http.ServeMux
	httpServer *http.Server

	// Rate Limiting
	rateLimiter     ratelimit.Limiter // General rate limiter
	authRateLimiter ratelimit.Limiter // Stricter limiter for the token endpoint

	// Lifecycle State
	mu      sync.Mutex
	started bool
}

// New creates a new Service instance.
func New(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &serverImpl{
		cfg:     cfg,
		logger:  logger,
		httpMux: http.NewServeMux(),
	}

	if cfg.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Enabled:  true,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})

		authRequests := cfg.RateLimit.AuthRequests
		if authRequests == 0 {
			authRequests = cfg.RateLimit.Requests
		}
		authWindow := cfg.RateLimit.AuthWindow
		if authWindow == 0 {
			authWindow = cfg.RateLimit.Window
		}
		s.authRateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Enabled:  true,
			Requests: authRequests,
			Window:   authWindow,
		})
	}

	return s
}

func (s *serverImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true

	// Initialize HTTP Server while holding the lock
	s.initHTTPServer()
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go s.runHTTPServer(errChan)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil // Normal shutdown signal
	}
}

func (s *serverImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		s.logger.Info("Stopping HTTP server")
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("http shutdown error: %w", shutdownErr)
		}
	}

	// Stop rate limiter cleanup goroutines
	for _, limiter := range []ratelimit.Limiter{s.rateLimiter, s.authRateLimiter} {
		if stoppable, ok := limiter.(ratelimit.Stoppable); ok {
			stoppable.Stop()
		}
	}

	return err
}

func (s *serverImpl) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.httpMux.Handle(pattern, handler)
}

func (s *serverImpl) HTTPMux() *http.ServeMux {
	return s.httpMux
}

func (s *serverImpl) AuthRateLimiter() ratelimit.Limiter {
	return s.authRateLimiter
}

// AuthRateLimitWindow returns the window of the auth limiter for Retry-After
// headers.
func (s *serverImpl) AuthRateLimitWindow() time.Duration {
	if s.cfg.RateLimit.AuthWindow != 0 {
		return s.cfg.RateLimit.AuthWindow
	}
	return s.cfg.RateLimit.Window
}
