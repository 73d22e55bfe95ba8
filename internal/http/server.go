// Package http provides the HTTP API for orderd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/jobs"
	"github.com/quirelabs/orderd/internal/page"
	"github.com/quirelabs/orderd/internal/resolver"
	"github.com/quirelabs/orderd/internal/sections"
)

// Orderer runs the ordering engine for one document.
type Orderer interface {
	Resolve(ctx context.Context, doc *page.Document) (*resolver.OrderingResult, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// MinTextRunes is the empty-page threshold applied to inbound pages.
	MinTextRunes int
}

// Server provides HTTP endpoints for orderd.
type Server struct {
	echo     *echo.Echo
	orderer  Orderer
	store    *jobs.Store
	detector *sections.Detector
	logger   *zap.Logger
	config   *Config
	registry *promclient.Registry
}

// NewServer creates a new HTTP server. registry may be nil to disable the
// /metrics endpoint.
func NewServer(orderer Orderer, store *jobs.Store, logger *zap.Logger, cfg *Config, registry *promclient.Registry) (*Server, error) {
	if orderer == nil {
		return nil, fmt.Errorf("orderer cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("job store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9191,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		orderer:  orderer,
		store:    store,
		detector: sections.NewDetector(0),
		logger:   logger,
		config:   cfg,
		registry: registry,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
		))
	}

	v1 := s.echo.Group("/api/v1")
	v1.POST("/orderings", s.handleCreateOrdering)
	v1.GET("/jobs/:id", s.handleJobStatus)
	v1.GET("/jobs/:id/result", s.handleJobResult)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCreateOrdering accepts extracted pages, registers a job, and runs
// the engine in the background.
func (s *Server) handleCreateOrdering(c echo.Context) error {
	var req CreateOrderingRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ordering request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Pages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "pages field is required")
	}

	pages := make([]page.Page, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = page.Page{
			Number:               p.PageNumber,
			Text:                 p.Text,
			ExtractionConfidence: p.ExtractionConfidence,
		}
	}
	doc, err := page.NewDocument(pages, s.config.MinTextRunes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := s.store.Create()
	go s.runOrdering(id, doc)

	return c.JSON(http.StatusAccepted, CreateOrderingResponse{
		JobID:  id,
		Status: string(jobs.StatusPending),
	})
}

// runOrdering executes one job. It deliberately uses a background context:
// the job outlives the HTTP request that created it.
func (s *Server) runOrdering(id string, doc *page.Document) {
	ctx := context.Background()
	log := s.logger.With(zap.String("job_id", id))

	_ = s.store.UpdateStatus(id, jobs.StatusProcessing, 10)
	_ = s.store.AppendLog(id, "info", fmt.Sprintf("ordering %d pages", doc.Len()))

	result, err := s.orderer.Resolve(ctx, doc)
	if result == nil {
		log.Error("ordering job failed", zap.Error(err))
		_ = s.store.AppendLog(id, "error", err.Error())
		_ = s.store.SetError(id, err)
		return
	}
	if err != nil {
		// Degraded result: keep it, record why.
		log.Warn("ordering degraded", zap.Error(err))
		_ = s.store.AppendLog(id, "warn", err.Error())
	}

	_ = s.store.UpdateStatus(id, jobs.StatusProcessing, 90)
	_ = s.store.AppendLog(id, "info", fmt.Sprintf("order resolved by %s", result.Source))

	toc := sections.TableOfContents(s.detector.Outline(doc, result.FinalOrder))
	_ = s.store.SetResult(id, result, toc)
	log.Info("ordering job completed",
		zap.String("source", string(result.Source)),
		zap.Int("pages", doc.Len()),
		zap.Int("warnings", len(result.Warnings)),
	)
}

// handleJobStatus returns status, progress, and logs for a job.
func (s *Server) handleJobStatus(c echo.Context) error {
	job, err := s.store.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	return c.JSON(http.StatusOK, JobStatusResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Logs:      job.Logs,
		Error:     job.Error,
	})
}

// handleJobResult returns the full ordering record once the job completed.
func (s *Server) handleJobResult(c echo.Context) error {
	job, err := s.store.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	if job.Status != jobs.StatusCompleted {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("job is %s, result not available", job.Status))
	}
	return c.JSON(http.StatusOK, JobResultResponse{
		JobID:  job.ID,
		Result: job.Result,
		TOC:    job.TOC,
	})
}

// Start starts the HTTP server.
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
