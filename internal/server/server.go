package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/chapters"
	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
)

type Server struct {
	port      string
	handler   http.Handler
	cfg       *config.Config
	logger    *zap.Logger
	chService chapters.ChapterService
	cancel    context.CancelFunc
}

// NewServer constructs the proxy with all dependencies injected. A nil cache
// serves every request straight from RapidAPI.
func NewServer(cfg *config.Config, c chapters.Cache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := cfg.Upstream(); err != nil {
		// Requests will answer 500 with an env_check block until this is fixed.
		logger.Warn("RapidAPI is not configured", zap.Error(err))
	}

	upstream := chapters.NewRapidAPIClient(cfg)
	chService := chapters.NewChapterService(upstream, c, logger.Named("chapters"))

	s := &Server{
		port:      cfg.Port,
		cfg:       cfg,
		logger:    logger,
		chService: chService,
	}

	s.handler = s.RegisterRoutes()
	return s
}

// HTTPServer returns the actual *http.Server instance
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", s.port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartBackgroundJobs runs the cache warmer.
func (s *Server) StartBackgroundJobs() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.chService.StartScheduler(ctx, s.cfg.CacheWarmInterval)
}

func (s *Server) StopBackgroundJobs() {
	if s.cancel != nil {
		s.cancel()
		s.logger.Info("Background jobs stopped gracefully")
	}
}
