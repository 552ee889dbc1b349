// Package metrics provides Prometheus metrics export for the notes pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notescopilot"

// PrometheusExporter exports provider, search and cache metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Provider call metrics
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	llmTokensUsed   *prometheus.CounterVec

	// Search metrics
	searchRequests   *prometheus.CounterVec
	searchLatency    *prometheus.HistogramVec
	searchCandidates prometheus.Histogram
	skippedVectors   prometheus.Counter

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// IncludeRuntime registers the Go runtime and process collectors.
	IncludeRuntime bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "provider_calls_total",
			Help:      "Total number of model provider calls",
		},
		[]string{"operation", "status"},
	)

	e.providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "provider_latency_seconds",
			Help:      "Model provider call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"operation"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of note listings by mode",
		},
		[]string{"mode", "status"},
	)

	e.searchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "latency_seconds",
			Help:      "Note listing latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"mode"},
	)

	e.searchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "candidates",
			Help:      "Number of stored embeddings ranked per semantic search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	e.skippedVectors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "skipped_embeddings_total",
			Help:      "Stored embeddings skipped because they were unreadable or mismatched",
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.providerCalls,
		e.providerLatency,
		e.llmTokensUsed,
		e.searchRequests,
		e.searchLatency,
		e.searchCandidates,
		e.skippedVectors,
		e.cacheHits,
		e.cacheMisses,
	)

	if cfg.IncludeRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordProviderCall records one embedding or analysis call.
func (e *PrometheusExporter) RecordProviderCall(operation string, latency time.Duration, success bool) {
	e.providerCalls.WithLabelValues(operation, statusLabel(success)).Inc()
	e.providerLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordSearch records a listing request in "list" or "semantic" mode.
func (e *PrometheusExporter) RecordSearch(mode string, latency time.Duration, success bool) {
	e.searchRequests.WithLabelValues(mode, statusLabel(success)).Inc()
	e.searchLatency.WithLabelValues(mode).Observe(latency.Seconds())
}

// ObserveCandidates records how many stored embeddings one search ranked.
func (e *PrometheusExporter) ObserveCandidates(count int) {
	e.searchCandidates.Observe(float64(count))
}

// RecordSkippedEmbedding counts a stored embedding left out of ranking.
func (e *PrometheusExporter) RecordSkippedEmbedding() {
	e.skippedVectors.Inc()
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
