// Package observability wires Prometheus instrumentation for the HTTP
// surface and the cache layer.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide metric collectors. Constructed once at
// startup and passed to every component that records; there is no global
// registry use so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheErrors   *prometheus.CounterVec
	invalidations *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyfront_cache_hits_total",
			Help: "Cache hits by key namespace.",
		}, []string{"namespace"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyfront_cache_misses_total",
			Help: "Cache misses by key namespace.",
		}, []string{"namespace"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyfront_cache_errors_total",
			Help: "Cache backend errors by operation. Errors are swallowed, not surfaced.",
		}, []string{"operation"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyfront_cache_invalidations_total",
			Help: "Invalidation events processed, by mutation kind.",
		}, []string{"mutation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyfront_http_requests_total",
			Help: "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storyfront_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(m.cacheHits, m.cacheMisses, m.cacheErrors, m.invalidations, m.httpRequests, m.httpDuration)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheHit records a cache hit for the given key namespace.
func (m *Metrics) CacheHit(namespace string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(namespace).Inc()
}

// CacheMiss records a cache miss for the given key namespace.
func (m *Metrics) CacheMiss(namespace string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(namespace).Inc()
}

// CacheError records a swallowed cache backend error.
func (m *Metrics) CacheError(operation string) {
	if m == nil {
		return
	}
	m.cacheErrors.WithLabelValues(operation).Inc()
}

// Invalidation records one processed invalidation event.
func (m *Metrics) Invalidation(mutation string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(mutation).Inc()
}

// HTTPRequest records a completed request.
func (m *Metrics) HTTPRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
