// Package metrics exposes Prometheus instruments for the delivery pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the delivery pipeline instruments, registered on a private
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// Attempts counts delivery attempts by provider and terminal status
	// ("sent" or "failed").
	Attempts *prometheus.CounterVec
	// Duration observes per-attempt wall-clock time in seconds.
	Duration *prometheus.HistogramVec
	// Failovers counts messages that succeeded only after at least one
	// provider had failed.
	Failovers prometheus.Counter
	// Exhausted counts messages for which every configured provider failed.
	Exhausted prometheus.Counter
}

// New creates a Metrics instance with all instruments registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_delivery_attempts_total",
			Help: "Delivery attempts by provider and terminal status.",
		}, []string{"provider", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_delivery_duration_seconds",
			Help:    "Wall-clock duration of delivery attempts.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider"}),
		Failovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_failover_total",
			Help: "Messages delivered only after failover to an alternate provider.",
		}),
		Exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_exhausted_total",
			Help: "Messages for which every configured provider failed.",
		}),
	}

	reg.MustRegister(m.Attempts, m.Duration, m.Failovers, m.Exhausted)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
