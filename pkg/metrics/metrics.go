// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	HTTPRequestsInFlight    prometheus.Gauge
	TermsLoadedTotal        *prometheus.CounterVec
	AnnotateRequestsTotal   *prometheus.CounterVec
	AnnotateLatency         *prometheus.HistogramVec
	MatchesPerRequest       prometheus.Histogram
	CacheHitsTotal          prometheus.Counter
	CacheMissesTotal        prometheus.Counter
	DocumentsAnnotatedTotal *prometheus.CounterVec
	CircuitBreakerState     *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		TermsLoadedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terms_loaded_total",
				Help: "Total dictionary terms loaded, by dictionary name.",
			},
			[]string{"dictionary"},
		),
		AnnotateRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotate_requests_total",
				Help: "Total annotation requests by input mode (text, tokens, labeled) and status.",
			},
			[]string{"mode", "status"},
		),
		AnnotateLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "annotate_latency_seconds",
				Help:    "Annotation scan latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
			[]string{"mode"},
		),
		MatchesPerRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "matches_per_request",
				Help:    "Number of term matches returned per annotation request.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of annotation cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of annotation cache misses.",
			},
		),
		DocumentsAnnotatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_annotated_total",
				Help: "Total documents processed by the annotation pipeline, by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.TermsLoadedTotal,
		m.AnnotateRequestsTotal,
		m.AnnotateLatency,
		m.MatchesPerRequest,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocumentsAnnotatedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
