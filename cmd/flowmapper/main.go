package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowmapper/internal/analysis"
	"flowmapper/internal/api"
	"flowmapper/internal/config"
	"flowmapper/internal/fetch"
	"flowmapper/internal/logging"
	"flowmapper/internal/monitoring"
	"flowmapper/internal/proxy"
	"flowmapper/internal/storage"

	"go.uber.org/zap"
)

func main() {
	// Load configuration first: the logger destination comes from it.
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogFile)
	defer logger.Sync()

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgStore.Close()
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	// Initialize Monitoring, Proxies
	metrics := monitoring.NewMetrics()
	proxyManager := proxy.NewManager()

	// Initialize Pipeline and Fetcher
	analyzer := analysis.NewAnalyzer(cfg.AnalysisOptions())
	fetcher := fetch.NewFetcher(cfg, pgStore, redisStore, proxyManager, metrics, logger)

	// Initialize API Server
	server := api.NewServer(cfg, analyzer, fetcher, pgStore, redisStore, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
