package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonny/instance-bot/internal/adapter/inbound/webhook/middleware"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	Path            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	RateLimit       *middleware.RateLimitConfig
}

// Server wraps an HTTP server with graceful shutdown support.
type Server struct {
	cfg     ServerConfig
	handler http.Handler
	logger  *slog.Logger
	srv     *http.Server
}

// NewServer creates a new Server with the given config and interaction handler.
func NewServer(cfg ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/interactions"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// SetupRoutes builds and returns an http.Handler with all middleware applied.
// Route layout:
//
//	GET  /health        - Health check
//	POST <path>         - Interaction endpoint (default /interactions)
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthHandler())
	mux.Handle("POST "+s.cfg.Path, s.handler)

	return Chain(mux, ChainConfig{
		Logger:       s.logger,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
		RateLimit:    s.cfg.RateLimit,
		TrustProxy:   s.cfg.RateLimit != nil && s.cfg.RateLimit.TrustProxy,
	})
}

// ChainConfig selects the middleware applied around the interaction handler.
type ChainConfig struct {
	Logger       *slog.Logger
	MaxBodyBytes int64
	RateLimit    *middleware.RateLimitConfig
	TrustProxy   bool
}

// Chain applies the middleware stack (outermost = first to execute):
//
//	Logging -> Recover -> SecurityHeaders -> [RateLimit] -> BodyReader
func Chain(h http.Handler, cfg ChainConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h = middleware.BodyReader(cfg.MaxBodyBytes)(h)
	if cfg.RateLimit != nil {
		h = middleware.NewRateLimiter(*cfg.RateLimit)(h)
	}
	h = middleware.SecurityHeaders(h)
	h = middleware.Recover(logger)(h)
	h = middleware.NewLoggingMiddleware(logger, cfg.TrustProxy)(h)
	return h
}

// Start starts the HTTP server and blocks until ctx is cancelled, then performs
// a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.SetupRoutes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("interaction server listening", "port", s.cfg.Port, "path", s.cfg.Path)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("interaction server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
