// Package http serves the daemon's health, metrics and status endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/nautwatch/internal/daemon"
	"github.com/fyrsmithlabs/nautwatch/internal/logging"
	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
)

const statusTimeout = 2 * time.Second

// StatusSource reports the daemon loop's state.
type StatusSource interface {
	Status(ctx context.Context) (daemon.Status, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Server provides HTTP endpoints for nautwatch.
type Server struct {
	echo   *echo.Echo
	status StatusSource
	logger *logging.Logger
	config *Config
}

// NewServer creates a new HTTP server.
func NewServer(status StatusSource, m *metrics.Metrics, logger *logging.Logger, cfg *Config) (*Server, error) {
	if status == nil {
		return nil, fmt.Errorf("status source cannot be nil")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9464,
		}
	}
	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(m.Registry).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Debug(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		status: status,
		logger: logger,
		config: cfg,
	}

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)

	return s, nil
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStatus reports the watch root, pending timers and dedup state.
func (s *Server) handleStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), statusTimeout)
	defer cancel()

	st, err := s.status.Status(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Status: "unavailable", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Health:  "ok",
		Version: s.config.Version,
		Status:  st,
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Listen binds the configured address. Calling it before Start surfaces
// bind errors to the caller instead of the serving goroutine.
func (s *Server) Listen() error {
	if s.echo.Listener != nil {
		return nil
	}
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	s.echo.Listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Start serves until Shutdown, binding first if Listen was not called. It
// returns nil after a graceful shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", s.Addr().String()))
	if err := s.echo.Start(s.Addr().String()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
