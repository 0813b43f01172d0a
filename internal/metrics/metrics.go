// Package metrics provides Prometheus metrics for the briefly client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec
	BriefsCollection prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefly_requests_total",
				Help: "Total API requests by operation and status.",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "briefly_request_duration_seconds",
				Help:    "API request duration by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefly_errors_total",
				Help: "Total errors by component and type.",
			},
			[]string{"component", "type"},
		),
		BriefsCollection: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "briefly_collection_briefs",
				Help: "Number of briefs held by the collection reconciler.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.ErrorsTotal)
	reg.MustRegister(m.BriefsCollection)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter. Nil-safe so wiring metrics
// stays optional for callers.
func (m *Metrics) RecordRequest(operation, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveDuration records an API request duration in seconds.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}

// SetCollectionSize records the reconciler's current collection size.
func (m *Metrics) SetCollectionSize(n int) {
	if m == nil {
		return
	}
	m.BriefsCollection.Set(float64(n))
}
