// Package server exposes the question-answering pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/openclerk/contractsense/engine"
	"github.com/openclerk/contractsense/export"
	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/llm"
	"github.com/openclerk/contractsense/metrics"
	"github.com/openclerk/contractsense/store"
)

// Server wires the pipeline, the store and the export manager behind an
// echo instance.
type Server struct {
	e *echo.Echo

	Profile  *profile.Profile
	Store    *store.Store
	Pipeline *engine.Service
	Exporter *export.Manager
	Metrics  *metrics.Exporter

	markdown goldmark.Markdown
}

// NewServer creates the HTTP server and its pipeline dependencies.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	exporter, err := export.NewManager(p.ExportsDir, "/exports", export.FormatCSV)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create export manager")
	}

	metricsExporter := metrics.NewExporter(metrics.DefaultConfig())

	var generator engine.Generator
	if p.IsLLMEnabled() {
		gen, err := llm.NewGenerator(&llm.Config{
			Provider: p.LLMProvider,
			Model:    p.LLMModel,
			APIKey:   p.LLMAPIKey,
			BaseURL:  p.LLMBaseURL,
			Timeout:  p.LLMTimeout,
		}, metricsExporter)
		if err != nil {
			slog.Warn("llm generator unavailable, composing heuristically", "error", err)
		} else {
			generator = gen
		}
	}

	adapter := store.NewPipelineAdapter(st)
	pipeline := engine.NewService(engine.DefaultConfig(), engine.Dependencies{
		Documents: adapter,
		Store:     adapter,
		Generator: generator,
		Exporter:  exporter,
		Metrics:   metricsExporter,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	s := &Server{
		e:        e,
		Profile:  p,
		Store:    st,
		Pipeline: pipeline,
		Exporter: exporter,
		Metrics:  metricsExporter,
		markdown: goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps())),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", s.healthz)
	s.e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	s.e.Static("/exports", s.Exporter.Dir())

	v1 := s.e.Group("/api/v1")
	v1.POST("/ask", s.ask)
	v1.POST("/classify", s.classify)
	v1.POST("/sessions/:session/documents", s.uploadDocument)
	v1.GET("/sessions/:session/turns", s.listTurns)
	v1.DELETE("/sessions/:session/turns", s.clearTurns)
}

// Echo exposes the underlying instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// Start begins serving. It returns once the listener stops.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.e.Start(addr)
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}
