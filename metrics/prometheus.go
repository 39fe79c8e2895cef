// Package metrics provides Prometheus metrics export for the response
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter collects pipeline metrics and serves them in Prometheus
// format. It satisfies the pipeline's Metrics interface and the
// generator's TokenObserver interface.
type Exporter struct {
	registry *prometheus.Registry

	respondLatency *prometheus.HistogramVec
	respondTotal   *prometheus.CounterVec
	tierFallbacks  *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	llmTokens *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for latency histograms, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}
}

// NewExporter creates an exporter with its own registry unless one is
// supplied.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.respondLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contractsense",
			Subsystem: "pipeline",
			Name:      "respond_latency_seconds",
			Help:      "End-to-end response latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"pattern", "tier"},
	)
	e.respondTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contractsense",
			Subsystem: "pipeline",
			Name:      "responses_total",
			Help:      "Total responses by pattern and tier",
		},
		[]string{"pattern", "tier"},
	)
	e.tierFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contractsense",
			Subsystem: "pipeline",
			Name:      "tier_fallbacks_total",
			Help:      "Tier attempts that failed and degraded to the next tier",
		},
		[]string{"tier"},
	)
	e.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "contractsense",
			Subsystem: "pipeline",
			Name:      "cache_hits_total",
			Help:      "Response cache hits",
		},
	)
	e.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "contractsense",
			Subsystem: "pipeline",
			Name:      "cache_misses_total",
			Help:      "Response cache misses",
		},
	)
	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contractsense",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "LLM tokens consumed",
		},
		[]string{"kind"},
	)

	registry.MustRegister(
		e.respondLatency,
		e.respondTotal,
		e.tierFallbacks,
		e.cacheHits,
		e.cacheMisses,
		e.llmTokens,
	)
	return e
}

// ObserveRespond records one completed response.
func (e *Exporter) ObserveRespond(pattern, tier string, elapsed time.Duration) {
	e.respondLatency.WithLabelValues(pattern, tier).Observe(elapsed.Seconds())
	e.respondTotal.WithLabelValues(pattern, tier).Inc()
}

// TierFallback counts a failed tier attempt.
func (e *Exporter) TierFallback(tier string) {
	e.tierFallbacks.WithLabelValues(tier).Inc()
}

func (e *Exporter) CacheHit()  { e.cacheHits.Inc() }
func (e *Exporter) CacheMiss() { e.cacheMisses.Inc() }

// ObserveTokens records LLM token consumption.
func (e *Exporter) ObserveTokens(promptTokens, completionTokens int) {
	e.llmTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	e.llmTokens.WithLabelValues("completion").Add(float64(completionTokens))
}

// Handler returns the scrape endpoint handler.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
