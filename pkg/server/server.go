// Package server provides the HTTP server for the extraction service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/server/handlers"
	"mercator-hq/ganymede/pkg/server/middleware"
	"mercator-hq/ganymede/pkg/telemetry/health"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Server is the HTTP front of the extraction service. It owns the
// listener, the middleware chain and graceful shutdown; the extraction
// work itself lives in the pipeline runner it is handed.
type Server struct {
	config       *config.ServerConfig
	deps         Deps
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Deps carries the wired components the server exposes over HTTP.
type Deps struct {
	// Runner executes extraction sessions. Required.
	Runner *pipeline.Runner

	// Checker answers the liveness and readiness endpoints. Optional;
	// a nil checker still serves both, with no component checks.
	Checker *health.Checker

	// Collector instruments requests and serves /metrics. Optional;
	// when nil the route and the metrics middleware are omitted.
	Collector *metrics.Collector

	// Version, Commit and BuildTime describe the running binary.
	Version   string
	Commit    string
	BuildTime string
}

// NewServer creates a new extraction server.
func NewServer(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server configuration is required")
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("pipeline runner is required")
	}
	if deps.Checker == nil {
		deps.Checker = health.New(0)
	}

	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting extraction server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		return nil
	}
}

// Shutdown gracefully shuts down the server, letting in-flight
// sessions finish within the configured shutdown timeout. Safe to call
// more than once; later calls return nil.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		close(s.shutdownChan)
		slog.Info("extraction server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/extractions",
		handlers.NewExtractionHandler(s.deps.Runner, s.config.MaxBodyBytes))
	mux.Handle("/v1/extractions/ws",
		handlers.NewWebSocketHandler(s.deps.Runner, s.wsOrigins(), s.config.MaxBodyBytes))

	health.Mount(mux, s.deps.Checker, s.deps.Version, s.deps.Commit, s.deps.BuildTime)

	if s.deps.Collector != nil {
		mux.Handle("/metrics", s.deps.Collector.Handler())
	}

	// Apply middleware chain, innermost first
	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.config.SessionTimeout)(handler)
	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	handler = middleware.RequestIDMiddleware(handler)
	if s.deps.Collector != nil {
		handler = middleware.MetricsMiddleware(s.deps.Collector)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler. Exposed so tests can
// drive the full chain through httptest without a real listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// corsConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) corsConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          s.config.CORS.Enabled,
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   s.config.CORS.AllowedMethods,
		AllowedHeaders:   s.config.CORS.AllowedHeaders,
		ExposedHeaders:   s.config.CORS.ExposedHeaders,
		MaxAge:           s.config.CORS.MaxAge,
		AllowCredentials: s.config.CORS.AllowCredentials,
	}
}

// wsOrigins returns the origin allowlist for WebSocket upgrades. A
// deployment that has not enabled CORS accepts any origin, matching
// the plain HTTP endpoints.
func (s *Server) wsOrigins() []string {
	if !s.config.CORS.Enabled {
		return nil
	}
	return s.config.CORS.AllowedOrigins
}
