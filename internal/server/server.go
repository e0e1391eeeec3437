// Package server provides the HTTP API for medragd.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/config"
	"github.com/medrag-labs/medragd/internal/language"
	"github.com/medrag-labs/medragd/internal/pipeline"
)

// apiKeyHeader carries the client API key.
const apiKeyHeader = "X-API-Key"

// Server provides HTTP endpoints for ingestion, retrieval and generation.
type Server struct {
	echo       *echo.Echo
	pipeline   *pipeline.Service
	translator language.Translator
	config     config.ServerConfig
	topK       int
	version    string
	logger     *zap.Logger
}

// New creates the HTTP server and registers its routes.
func New(p *pipeline.Service, translator language.Translator, cfg config.ServerConfig, topK int, version string, logger *zap.Logger) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		pipeline:   p,
		translator: translator,
		config:     cfg,
		topK:       topK,
		version:    version,
		logger:     logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)
	e.Use(s.requireAPIKey)

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/ingest", s.handleIngest)
	v1.POST("/retrieve", s.handleRetrieve)
	v1.POST("/generate", s.handleGenerate)
}

// requestLogger logs every request with its duration and request id.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		recordRequest(c.Request().Method, c.Path(), c.Response().Status, duration)
		return err
	}
}

// requireAPIKey validates the X-API-Key header on API endpoints. Health,
// metrics and the root endpoint stay open. Authentication is disabled when
// no key is configured.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.config.APIKey.IsSet() {
			return next(c)
		}
		switch c.Path() {
		case "/", "/health", "/metrics":
			return next(c)
		}

		provided := c.Request().Header.Get(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.config.APIKey.Value())) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
		}
		return next(c)
	}
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "medragd retrieval-augmented document service",
		"version": s.version,
		"health":  "/health",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       s.version,
		IndexReady:    s.pipeline.Ready(),
		ChunksIndexed: s.pipeline.Count(),
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
