// Package metrics provides Prometheus instrumentation for the community
// stores and HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for store operations.
type Metrics struct {
	registry *prometheus.Registry

	opsTotal   *prometheus.CounterVec
	opDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "community",
			Name:      "store_operations_total",
			Help:      "Total store operations by store, operation, and status.",
		}, []string{"store", "op", "status"}),
		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "community",
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation latency by store and operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "op"}),
	}
}

// ObserveOp records one store operation.
func (m *Metrics) ObserveOp(store, op string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.opsTotal.WithLabelValues(store, op, status).Inc()
	m.opDuration.WithLabelValues(store, op).Observe(duration.Seconds())
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
