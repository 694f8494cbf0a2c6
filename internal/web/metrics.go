package web

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors exported on /metrics. Path labels use the
// registered route template so cardinality stays bounded.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	days     *prometheus.CounterVec
	memos    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_inflight",
				Help: "Current number of in-flight HTTP requests.",
			},
		),
		days: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tarot_days_served_total",
				Help: "Daily card sets returned, by deck.",
			},
			[]string{"deck"},
		),
		memos: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tarot_memos_written_total",
				Help: "Hourly memos stored or cleared.",
			},
		),
	}
	reg.MustRegister(m.requests, m.latency, m.inflight, m.days, m.memos)
	return m
}
