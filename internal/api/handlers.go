package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"flowmapper/internal/analysis"
	"flowmapper/internal/domain"
	"flowmapper/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CrawlRequest is the payload for starting a crawl.
type CrawlRequest struct {
	StartURL string `json:"start_url"`
	Force    bool   `json:"force"` // bypass the recent-crawl dedup window
}

// AnalyzeRequest carries an inline page snapshot for storage-free
// analysis.
type AnalyzeRequest struct {
	StartURL string              `json:"start_url"`
	Pages    []domain.PageRecord `json:"pages"`
}

func (s *Server) handleStartCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := url.ParseRequestURI(req.StartURL); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid start_url")
		return
	}

	start := analysis.NormalizeURL(req.StartURL)
	if !req.Force {
		recent, err := s.redisStore.IsRecentlyCrawled(r.Context(), start)
		if err != nil {
			s.logger.Error("failed to check redis for crawl dedup", zap.String("url", start), zap.Error(err))
		}
		if recent {
			s.respondWithError(w, http.StatusConflict, "Site was crawled recently; pass force=true to re-crawl")
			return
		}
	}

	crawlID, err := s.pgStore.CreateCrawl(r.Context(), start)
	if err != nil {
		s.logger.Error("failed to create crawl", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not start crawl")
		return
	}

	go func() {
		ctx := context.Background()
		status := "completed"
		if err := s.fetcher.Crawl(ctx, crawlID, start); err != nil {
			s.logger.Error("crawl failed", zap.Int64("crawl_id", crawlID), zap.Error(err))
			status = "failed"
		}
		if err := s.pgStore.FinishCrawl(ctx, crawlID, status); err != nil {
			s.logger.Error("failed to finish crawl", zap.Int64("crawl_id", crawlID), zap.Error(err))
		}
	}()

	s.respondWithJSON(w, http.StatusAccepted, map[string]interface{}{"crawl_id": crawlID})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	crawlID, err := strconv.ParseInt(chi.URLParam(r, "crawlID"), 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid crawl id")
		return
	}

	if cached, err := s.redisStore.GetCachedFlow(r.Context(), crawlID); err != nil {
		s.logger.Error("flow cache lookup failed", zap.Int64("crawl_id", crawlID), zap.Error(err))
	} else if cached != nil {
		s.respondWithJSON(w, http.StatusOK, formatFlow(cached))
		return
	}

	startURL, err := s.pgStore.GetCrawlStartURL(r.Context(), crawlID)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondWithError(w, http.StatusNotFound, "Crawl not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load crawl", zap.Int64("crawl_id", crawlID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not load crawl")
		return
	}

	pages, err := s.pgStore.LoadPages(r.Context(), crawlID)
	if err != nil {
		s.logger.Error("failed to load pages", zap.Int64("crawl_id", crawlID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not load crawl pages")
		return
	}
	if pages.Len() == 0 {
		s.respondWithError(w, http.StatusNotFound, "Crawl has no pages yet")
		return
	}

	flow := s.analyze(pages, startURL)

	if err := s.pgStore.SaveFlow(r.Context(), crawlID, flow); err != nil {
		s.logger.Error("failed to persist flow", zap.Int64("crawl_id", crawlID), zap.Error(err))
	}
	ttl := time.Duration(s.config.FlowCacheMinutes) * time.Minute
	if err := s.redisStore.CacheFlow(r.Context(), crawlID, flow, ttl); err != nil {
		s.logger.Error("failed to cache flow", zap.Int64("crawl_id", crawlID), zap.Error(err))
	}

	s.respondWithJSON(w, http.StatusOK, formatFlow(flow))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Pages) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Pages list cannot be empty")
		return
	}

	set := domain.NewPageSet()
	for i := range req.Pages {
		set.Put(&req.Pages[i])
	}

	flow := s.analyze(set, req.StartURL)
	s.respondWithJSON(w, http.StatusOK, formatFlow(flow))
}

// analyze runs the pipeline once, logging and metering the report.
func (s *Server) analyze(pages *domain.PageSet, startURL string) *domain.UserFlow {
	started := time.Now()
	flow, report := s.analyzer.Analyze(pages, startURL)
	s.metrics.ObserveAnalysis(time.Since(started).Seconds(), flow.Metadata.NoiseFiltered, report.Noise.FallbackTriggered)

	s.logger.Info("flow analysis finished",
		zap.String("start_url", flow.Metadata.StartURL),
		zap.Int("total_pages", pages.Len()),
		zap.Int("key_pages", report.KeyPages),
		zap.Int("nodes", len(flow.Nodes)),
		zap.Int("edges", len(flow.Edges)),
		zap.Int("noise_filtered", flow.Metadata.NoiseFiltered),
		zap.Bool("noise_fallback", report.Noise.FallbackTriggered))
	for _, stage := range report.Stages {
		s.logger.Debug("analysis stage",
			zap.String("stage", stage.Stage),
			zap.Duration("duration", stage.Duration),
			zap.String("detail", stage.Detail))
	}
	return flow
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if err := s.pgStore.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	if healthStatus["postgres"] != "healthy" || healthStatus["redis"] != "healthy" {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
