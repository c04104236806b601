// Package server provides the HTTP server for the portal, metrics and health checks.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imedwei/apk-portal/internal/health"
)

// RouteRegistrar mounts application routes on the server's router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Server represents the HTTP server.
type Server struct {
	server  *http.Server
	logger  *slog.Logger
	checker *health.Checker
}

// Config holds server configuration.
type Config struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	MetricsEnabled     bool
	CORSAllowedOrigins []string
}

// DefaultConfig returns default server configuration. Timeouts are generous
// because package uploads are buffered whole before reaching storage.
func DefaultConfig() Config {
	return Config{
		Port:            8090,
		ReadTimeout:     5 * time.Minute,
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MetricsEnabled:  true,
	}
}

// New creates a new HTTP server with the given applications mounted.
func New(config Config, logger *slog.Logger, checker *health.Checker, apps ...RouteRegistrar) *Server {
	if checker == nil {
		checker = health.NewChecker()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	if len(config.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	if config.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health", checker.Handler())
	r.Get("/ready", checker.ReadinessHandler())
	r.Get("/live", health.LivenessHandler())

	for _, app := range apps {
		app.RegisterRoutes(r)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:  server,
		logger:  logger,
		checker: checker,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// RegisterHealthCheck registers a health check function.
func (s *Server) RegisterHealthCheck(name string, checkFunc health.CheckFunc) {
	s.checker.RegisterCheck(name, checkFunc)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.Addr(), "health_checks", s.checker.Names())

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
