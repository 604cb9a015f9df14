// Package api exposes the read and admin surface over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waymark-project/waymark/internal/corroborate"
	"github.com/waymark-project/waymark/internal/ingest"
	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/query"
	"github.com/waymark-project/waymark/internal/scoring"
	"github.com/waymark-project/waymark/internal/store"
	"github.com/waymark-project/waymark/internal/validate"
	"github.com/waymark-project/waymark/internal/worker"
)

// Server wires the services under a gin router.
type Server struct {
	query    *query.Service
	store    *store.Store
	engine   *scoring.Engine
	scanner  *corroborate.Scanner
	checker  *validate.Checker
	pipeline *ingest.Pipeline
	workers  int
	addr     string
	router   *gin.Engine
}

// Options carries the server's collaborators.
type Options struct {
	Query    *query.Service
	Store    *store.Store
	Engine   *scoring.Engine
	Scanner  *corroborate.Scanner
	Checker  *validate.Checker
	Pipeline *ingest.Pipeline
	Workers  int
	Config   model.ServerConfig
}

// New builds the server and registers routes.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		query:    opts.Query,
		store:    opts.Store,
		engine:   opts.Engine,
		scanner:  opts.Scanner,
		checker:  opts.Checker,
		pipeline: opts.Pipeline,
		workers:  opts.Workers,
		addr:     opts.Config.Addr,
		router:   router,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.GET("/indicators", s.handleIndicators)
		v1.GET("/scores", s.handleScores)
		v1.POST("/scores/simulate", s.handleSimulate)
		v1.GET("/snapshots", s.handleSnapshots)
		v1.GET("/snapshots/latest", s.handleLatestSnapshot)
		v1.POST("/snapshots", s.handleTakeSnapshot)
		v1.GET("/claims", s.handleClaims)
		v1.GET("/claims/search", s.handleSearch)
		v1.GET("/claims/:id", s.handleClaim)
		v1.POST("/claims", s.handleIngest)
		v1.POST("/claims/:id/retract", s.handleRetract)
		v1.POST("/corroborate", s.handleCorroborate)
		v1.GET("/budget", s.handleBudget)
		v1.GET("/audit/:entity/:id", s.handleAudit)
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// batchFromRaws fans raw claims out over the ingestion workers.
func (s *Server) batchFromRaws(ctx context.Context, raws []model.RawClaim) []*worker.IngestResult {
	b := worker.NewBatchProcessor(s.pipeline, s.workers)
	return b.ProcessClaims(ctx, raws)
}
