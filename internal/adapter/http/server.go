package http

import (
	"context"
	"net/http"
	"time"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DashboardService is the read side the API serves from.
type DashboardService interface {
	sharedobs.ReadinessChecker
	Registry() *domain.Registry
	Dashboard(ctx context.Context, id domain.ScenarioID) (*domain.Dashboard, error)
}

// Server exposes the dashboard API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates an HTTP server backed by svc.
func NewServer(addr string, svc DashboardService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      newRouter(svc, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
	return s
}

func newRouter(svc DashboardService, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(svc)))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{svc: svc, logger: logger}
	api := r.Group("/api/v1")
	api.GET("/scenarios", h.scenarios)
	api.GET("/loss-categories", h.lossCategories)
	api.GET("/scenarios/:id/dashboard", h.dashboard)
	api.GET("/scenarios/:id/sections/:section", h.section)
	api.GET("/scenarios/:id/export.xlsx", h.exportWorkbook)
	api.GET("/scenarios/:id/charts/losses.png", h.lossChart)

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
