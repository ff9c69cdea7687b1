package datacore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeOK = "ok"

// Metrics holds the Prometheus collectors for the executors. A nil *Metrics
// records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retryAttempts   prometheus.Counter
	retryExhausted  prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datacore_requests_total",
				Help: "Total number of HTTP requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datacore_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		retryAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "datacore_retry_attempts_total",
			Help: "Total number of failed attempts that were retried",
		}),
		retryExhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "datacore_retry_exhausted_total",
			Help: "Total number of retry sequences that ended in failure",
		}),
	}
}

func (m *Metrics) observeRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) incRetry() {
	if m == nil {
		return
	}
	m.retryAttempts.Inc()
}

func (m *Metrics) incExhausted() {
	if m == nil {
		return
	}
	m.retryExhausted.Inc()
}
