package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ideaforge/ideaforge-go/internal/config"
	"github.com/ideaforge/ideaforge-go/internal/guardrails"
	"github.com/ideaforge/ideaforge-go/internal/metrics"
	"github.com/ideaforge/ideaforge-go/internal/provider"
)

// Generator is the slice of the LLM client the handlers need. Tests swap in
// a stub.
type Generator interface {
	GenerateWithRetry(ctx context.Context, req provider.Request, maxAttempts int) (string, error)
	GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.Chunk, error)
}

type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	llm      Generator
	registry *provider.Registry
	catalog  *provider.Catalog
	guards   *guardrails.Guardrails
	tracker  *metrics.Tracker
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger, llm Generator, registry *provider.Registry, catalog *provider.Catalog, tracker *metrics.Tracker) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	srv := &Server{
		cfg:      cfg,
		engine:   engine,
		llm:      llm,
		registry: registry,
		catalog:  catalog,
		guards:   guardrails.New(),
		tracker:  tracker,
		logger:   logger,
	}
	engine.Use(srv.requestLog(), gin.Recovery())
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.POST("/generate", s.generateIdeas)
	api.GET("/generate", s.generateHealth)
	api.POST("/socratic-question", s.socraticQuestion)
	api.GET("/socratic-question", s.socraticHealth)
	api.POST("/validate-demand", s.validateDemand)
	api.GET("/validate-demand", s.validateHealth)
	api.GET("/models", s.listModels)
	api.GET("/usage", s.usageReport)
}

// requestLog tags every request with an id and logs its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.engine,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
