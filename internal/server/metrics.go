package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's prometheus collectors
type Metrics struct {
	requests  *prometheus.HistogramVec
	mutations *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teamtrack_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtrack_mutations_total",
			Help: "Task and comment mutations by operation and outcome.",
		}, []string{"op", "result"}),
	}
}

func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) mutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = strconv.Itoa(StatusFor(err))
	}
	m.mutations.WithLabelValues(op, result).Inc()
}
