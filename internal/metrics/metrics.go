// Package metrics holds the prometheus collectors for object-store calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records gateway calls. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explorer_store_requests_total",
				Help: "Object store calls by operation and result code",
			},
			[]string{"op", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "explorer_store_request_duration_seconds",
				Help:    "Object store call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe records one call. code is "OK" on success.
func (m *Metrics) Observe(op, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, code).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
