// Package server assembles the gateway's HTTP surface.
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

	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/proxy/handlers"
	"mercator-hq/ganymede/pkg/proxy/middleware"
	"mercator-hq/ganymede/pkg/security/auth"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Server is the gateway HTTP server. It owns the route table and the
// middleware chain; the upstream client, catalog, metrics collector, and
// journal recorder are injected and remain owned by the caller.
type Server struct {
	config       *config.Config
	client       handlers.UpstreamClient
	catalog      *catalog.Catalog
	metrics      *metrics.Collector
	journal      *journal.Recorder
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a gateway server. The collector may be nil when
// metrics are disabled and the recorder may be nil when journaling is
// disabled.
func NewServer(cfg *config.Config, client handlers.UpstreamClient, cat *catalog.Catalog, collector *metrics.Collector, recorder *journal.Recorder) *Server {
	return &Server{
		config:       cfg,
		client:       client,
		catalog:      cat,
		metrics:      collector,
		journal:      recorder,
		shutdownChan: make(chan struct{}),
	}
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

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server",
			"address", s.config.Server.ListenAddress,
			"metrics_enabled", s.config.Telemetry.Metrics.Enabled,
			"journal_enabled", s.config.Journal.Enabled,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server. In-flight streams get
// ShutdownTimeout to finish before the listener is torn down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
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

		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	chatHandler := handlers.NewChatHandler(s.client, s.catalog, s.config.Translate, s.metrics, s.journal)
	modelsHandler := handlers.NewModelsHandler(s.catalog)
	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadyHandler(s.client)

	// The /v1 surface requires the shared API key; probes and metrics
	// stay open for infrastructure.
	authMiddleware := auth.NewMiddleware(auth.NewValidator(s.config.Auth.APIKey))

	mux.Handle("/v1/chat/completions", authMiddleware.Handle(chatHandler))
	mux.Handle("/v1/models", authMiddleware.Handle(modelsHandler))
	mux.Handle("/health", healthHandler)
	mux.Handle("/ready", readyHandler)

	if s.config.Telemetry.Metrics.Enabled && s.metrics != nil {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux

	// Request IDs are assigned outside the logging wrapper so the access
	// log lines carry them.
	handler = middleware.TimeoutMiddleware(s.config.Server.WriteTimeout)(handler)
	handler = middleware.CORSMiddleware(s.convertCORSConfig())(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Health performs a health check on the server.
func (s *Server) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return fmt.Errorf("server is not running")
	}
	if !s.client.Healthy() {
		return fmt.Errorf("upstream is unhealthy")
	}
	return nil
}

// convertCORSConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) convertCORSConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          s.config.Server.CORS.Enabled,
		AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
		AllowedMethods:   s.config.Server.CORS.AllowedMethods,
		AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
		ExposedHeaders:   s.config.Server.CORS.ExposedHeaders,
		MaxAge:           s.config.Server.CORS.MaxAge,
		AllowCredentials: s.config.Server.CORS.AllowCredentials,
	}
}
