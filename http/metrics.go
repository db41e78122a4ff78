package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's prometheus collectors.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	streamsActive  prometheus.Gauge
	streamBytes    *prometheus.CounterVec
	streamOutcomes *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediashelf",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		streamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mediashelf",
				Subsystem: "gateway",
				Name:      "streams_active",
				Help:      "Number of media streams currently being served.",
			},
		),
		streamBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediashelf",
				Subsystem: "gateway",
				Name:      "stream_bytes_total",
				Help:      "Total bytes written to clients.",
			},
			[]string{"namespace"},
		),
		streamOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediashelf",
				Subsystem: "gateway",
				Name:      "stream_outcomes_total",
				Help:      "Stream sessions by final state.",
			},
			[]string{"namespace", "outcome"},
		),
		streamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mediashelf",
				Subsystem: "gateway",
				Name:      "stream_duration_seconds",
				Help:      "Time from request start to stream teardown.",
				Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300, 1800},
			},
			[]string{"namespace"},
		),
	}

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.streamsActive,
		m.streamBytes,
		m.streamOutcomes,
		m.streamDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}
