// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics for the search pipeline.
// A nil *Metrics is valid and records nothing, so components can take
// metrics optionally without guarding every call site.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	searchesTotal     *prometheus.CounterVec
	searchDuration    prometheus.Histogram
	cacheHits         prometheus.Counter
	fetchAttempts     *prometheus.CounterVec
	challengesTotal   *prometheus.CounterVec
	candidatesTotal   *prometheus.CounterVec
	sourcesSentineled *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers the pipeline metrics on a private
// registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ofertaradar"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		searchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by outcome",
		}, []string{"outcome"}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of full aggregations",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Searches answered from the result cache",
		}),
		fetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP fetch attempts per source",
		}, []string{"source"}),
		challengesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_challenges_total",
			Help:      "Bot challenges detected per source",
		}, []string{"source"}),
		candidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_extracted_total",
			Help:      "Product candidates accepted per source",
		}, []string{"source"}),
		sourcesSentineled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_sentineled_total",
			Help:      "Aggregations where a source produced no offer",
		}, []string{"source"}),
	}
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SearchCompleted records one finished search with its outcome label.
func (m *Metrics) SearchCompleted(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(duration.Seconds())
}

// CacheHit records a search served from cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// FetchAttempt records one fetch attempt for a source.
func (m *Metrics) FetchAttempt(source string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(source).Inc()
}

// ChallengeDetected records a bot challenge for a source.
func (m *Metrics) ChallengeDetected(source string) {
	if m == nil {
		return
	}
	m.challengesTotal.WithLabelValues(source).Inc()
}

// CandidatesExtracted records accepted candidates for a source.
func (m *Metrics) CandidatesExtracted(source string, count int) {
	if m == nil {
		return
	}
	m.candidatesTotal.WithLabelValues(source).Add(float64(count))
}

// SourceSentineled records a source that yielded the no-offer sentinel.
func (m *Metrics) SourceSentineled(source string) {
	if m == nil {
		return
	}
	m.sourcesSentineled.WithLabelValues(source).Inc()
}
