// Package api exposes the comparison pipeline over HTTP for the web
// frontend: multipart upload of documents, run history and health.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bkooistra/factuurcheck/internal/adapters/supplierpdf"
	"github.com/bkooistra/factuurcheck/internal/application/pipeline"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/storage"
)

// Server handles the HTTP surface.
type Server struct {
	pipeline  *pipeline.Pipeline
	repo      storage.Repository
	converter *supplierpdf.Converter
	logger    *slog.Logger
	cfg       config.APIConfig
}

// NewServer creates the API server. The converter may be nil when PDF
// support is not configured; PDF uploads are then rejected with a clear
// message.
func NewServer(p *pipeline.Pipeline, repo storage.Repository, converter *supplierpdf.Converter,
	logger *slog.Logger, cfg config.APIConfig) *Server {
	return &Server{
		pipeline:  p,
		repo:      repo,
		converter: converter,
		logger:    logger,
		cfg:       cfg,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		api.POST("/compare", s.handleCompare)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/stats", s.handleStats)
	}

	return router
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("api server listening", "addr", addr)
	return s.Router().Run(addr)
}
