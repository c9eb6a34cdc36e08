package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesFetchedTotal  *prometheus.CounterVec
	FetchErrorsTotal   *prometheus.CounterVec
	AnalysesTotal      prometheus.Counter
	NoiseLinksFiltered prometheus.Counter
	FallbacksTotal     prometheus.Counter
	AnalysisDuration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesFetchedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowmapper_pages_fetched_total",
			Help: "The total number of pages fetched during crawls",
		}, nil),
		FetchErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowmapper_fetch_errors_total",
			Help: "The total number of fetch errors encountered",
		}, []string{"type"}), // e.g., 'navigate_failed', 'extract_failed', 'db_save_failed'
		AnalysesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowmapper_analyses_total",
			Help: "The total number of flow analyses run",
		}),
		NoiseLinksFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowmapper_noise_links_filtered_total",
			Help: "The total number of distinct noise links removed across analyses",
		}),
		FallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowmapper_noise_fallbacks_total",
			Help: "The number of analyses where the conservative noise fallback fired",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowmapper_analysis_duration_seconds",
			Help:    "Duration of flow analyses",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

func (m *Metrics) IncPagesFetched() {
	m.PagesFetchedTotal.WithLabelValues().Inc()
}

func (m *Metrics) IncFetchErrors(errorType string) {
	m.FetchErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveAnalysis(seconds float64, noiseFiltered int, fallback bool) {
	m.AnalysesTotal.Inc()
	m.AnalysisDuration.Observe(seconds)
	m.NoiseLinksFiltered.Add(float64(noiseFiltered))
	if fallback {
		m.FallbacksTotal.Inc()
	}
}
