package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/cache"
	"github.com/taiwoajasa245/gita-reader-api/internal/chapters"
	"github.com/taiwoajasa245/gita-reader-api/internal/server"
	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
	"github.com/taiwoajasa245/gita-reader-api/pkg/logger"
)

func gracefulShutdown(apiServer *http.Server, srv *server.Server, log *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	srv.StopBackgroundJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
	done <- true
}

// openCache returns nil when REDIS_URL is unset or unreachable; the proxy
// then forwards every request.
func openCache(cfg *config.Config, log *zap.Logger) (chapters.Cache, func()) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, response cache disabled")
		return nil, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Warn("Redis unavailable, response cache disabled", zap.Error(err))
		return nil, func() {}
	}

	log.Info("Response cache enabled", zap.Duration("ttl", cfg.CacheTTL))
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warn("Failed to close redis", zap.Error(err))
		}
	}
}

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	c, closeCache := openCache(cfg, log)
	defer closeCache()

	srv := server.NewServer(cfg, c, log)
	apiServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, srv, log, done)

	srv.StartBackgroundJobs()

	log.Info("Gita reader api listening", zap.String("addr", apiServer.Addr), zap.String("env", cfg.AppEnv))
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete.")
}
