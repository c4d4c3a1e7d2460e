package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the service, organized by
// subsystem: HTTP, searches, swipes, the liked-paper library, and LLM
// operations. All collectors are registered via promauto with the default
// Prometheus registry.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests by method, route, and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds by route.
	HTTPRequestDuration *prometheus.HistogramVec

	// SearchesTotal counts search-API fetches by source and status.
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes search-API fetch duration in seconds by source.
	SearchDuration *prometheus.HistogramVec

	// PapersFetched counts papers returned by the search API, by source.
	PapersFetched *prometheus.CounterVec

	// SwipesTotal counts committed swipes by direction.
	SwipesTotal *prometheus.CounterVec

	// DecksActive tracks the number of live deck sessions.
	DecksActive prometheus.Gauge

	// LikedPapers tracks the number of papers in the library.
	LikedPapers prometheus.Gauge

	// LLMRequestsTotal counts LLM requests by provider, operation, and status.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestDuration observes LLM request duration in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed, labeled by provider and token type.
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),

		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of search-API fetches by source and status",
		}, []string{"source", "status"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of search-API fetches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		PapersFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of papers returned by the search API",
		}, []string{"source"}),

		SwipesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swipes_total",
			Help:      "Total number of committed swipes by direction",
		}, []string{"direction"}),
		DecksActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "decks_active",
			Help:      "Number of live deck sessions",
		}),
		LikedPapers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "liked_papers",
			Help:      "Number of papers in the library",
		}),

		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by provider and operation",
		}, []string{"provider", "operation", "status"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "operation"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used by LLM operations",
		}, []string{"provider", "token_type"}),
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSearch records one search-API fetch.
func (m *Metrics) RecordSearch(source, status string, paperCount int, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(source, status).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if paperCount > 0 {
		m.PapersFetched.WithLabelValues(source).Add(float64(paperCount))
	}
}

// RecordSwipe records a committed swipe.
func (m *Metrics) RecordSwipe(direction string) {
	m.SwipesTotal.WithLabelValues(direction).Inc()
}

// SetDecksActive updates the live deck session gauge.
func (m *Metrics) SetDecksActive(n int) {
	m.DecksActive.Set(float64(n))
}

// SetLikedPapers updates the library size gauge.
func (m *Metrics) SetLikedPapers(n int) {
	m.LikedPapers.Set(float64(n))
}

// RecordLLMRequestMetric records an LLM request outcome.
func (m *Metrics) RecordLLMRequestMetric(provider, operation, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordLLMTokensMetric records token usage for an LLM request.
func (m *Metrics) RecordLLMTokensMetric(provider string, inputTokens, outputTokens int) {
	m.LLMTokensUsed.WithLabelValues(provider, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide Metrics instance, creating it on first
// use. promauto registration happens once, so repeated calls are safe.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics("kigaers")
	})
	return defaultMetrics
}

// RecordLLMRequest records an LLM request on the default metrics.
func RecordLLMRequest(provider, operation, status string, duration time.Duration) {
	Default().RecordLLMRequestMetric(provider, operation, status, duration)
}

// RecordLLMTokens records LLM token usage on the default metrics.
func RecordLLMTokens(provider string, inputTokens, outputTokens int) {
	Default().RecordLLMTokensMetric(provider, inputTokens, outputTokens)
}
