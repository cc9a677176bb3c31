package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dispatcher activity. Outcome labels follow the Result
// kinds, with "success" for 2xx envelopes.
type Metrics struct {
	requests    *prometheus.CounterVec
	authRetries prometheus.Counter
}

// NewMetrics registers the dispatcher counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wayhome",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Dispatched backend requests by outcome.",
		}, []string{"outcome"}),
		authRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wayhome",
			Subsystem: "client",
			Name:      "auth_retries_total",
			Help:      "Requests retried after a 401 and token refresh.",
		}),
	}
}

func (m *Metrics) observe(r Result) {
	outcome := "success"
	if !r.Success {
		outcome = string(r.Kind)
	}
	m.requests.WithLabelValues(outcome).Inc()
}
