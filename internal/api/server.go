package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flowmapper/internal/analysis"
	"flowmapper/internal/config"
	"flowmapper/internal/fetch"
	"flowmapper/internal/monitoring"
	"flowmapper/internal/storage"

	"go.uber.org/zap"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	analyzer   *analysis.Analyzer
	fetcher    *fetch.Fetcher
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, a *analysis.Analyzer, f *fetch.Fetcher, ps *storage.PostgresStore, rs *storage.RedisStore, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		analyzer:   a,
		fetcher:    f,
		pgStore:    ps,
		redisStore: rs,
		metrics:    m,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
