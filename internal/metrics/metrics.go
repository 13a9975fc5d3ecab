// Package metrics provides Prometheus metrics for finq
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Resolution
	ResolutionCacheTotal *prometheus.CounterVec
	ReferenceLoadsTotal  *prometheus.CounterVec

	// Batch retrieval
	BatchWindowsTotal  prometheus.Counter
	EntityFetchesTotal *prometheus.CounterVec

	// Ranking
	PreviewFetchesTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ResolutionCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finq_resolution_cache_total",
				Help: "Resolution cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		ReferenceLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finq_reference_table_loads_total",
				Help: "Reference table loads by outcome (fetched, memoized, failed)",
			},
			[]string{"outcome"},
		),
		BatchWindowsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finq_batch_windows_total",
				Help: "Batch windows issued against the per-entity source",
			},
		),
		EntityFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finq_entity_fetches_total",
				Help: "Per-entity fetches by outcome (ok, failed)",
			},
			[]string{"outcome"},
		),
		PreviewFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finq_preview_fetches_total",
				Help: "Content preview fetches during ranking by budget tier (refine, fallback)",
			},
			[]string{"tier"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finq_http_requests_total",
				Help: "HTTP requests by path and status",
			},
			[]string{"path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finq_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"path"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// CacheLookup records a resolution cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ResolutionCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.ResolutionCacheTotal.WithLabelValues("miss").Inc()
}

// ReferenceLoad records a reference table load outcome
func (m *Metrics) ReferenceLoad(outcome string) {
	if m == nil {
		return
	}
	m.ReferenceLoadsTotal.WithLabelValues(outcome).Inc()
}

// BatchWindow records one issued window
func (m *Metrics) BatchWindow() {
	if m == nil {
		return
	}
	m.BatchWindowsTotal.Inc()
}

// EntityFetch records a per-entity fetch outcome
func (m *Metrics) EntityFetch(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.EntityFetchesTotal.WithLabelValues("ok").Inc()
		return
	}
	m.EntityFetchesTotal.WithLabelValues("failed").Inc()
}

// PreviewFetch records a ranking preview fetch for a budget tier
func (m *Metrics) PreviewFetch(tier string) {
	if m == nil {
		return
	}
	m.PreviewFetchesTotal.WithLabelValues(tier).Inc()
}

// HTTPRequest records a served request
func (m *Metrics) HTTPRequest(path string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(dur.Seconds())
}
