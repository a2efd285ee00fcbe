// Package metrics exposes prometheus instruments for the collector and
// the upstream client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides the metrics registry and instruments.
var Module = fx.Provide(New)

// Metrics holds the application-level instruments served on /metrics.
type Metrics struct {
	ticks           *prometheus.CounterVec
	recordsInserted prometheus.Counter
	upstreamCalls   *prometheus.HistogramVec
}

// New registers the instruments on the default registerer.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTest registers the instruments on a private registry so tests
// do not collide.
func NewForTest() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bundlewatch_collection_ticks_total",
			Help: "Collection ticks by outcome.",
		}, []string{"outcome"}),
		recordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bundlewatch_usage_records_total",
			Help: "Usage records persisted.",
		}),
		upstreamCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bundlewatch_upstream_call_duration_seconds",
			Help:    "Upstream API call latency by endpoint and outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint", "outcome"}),
	}

	registerer.MustRegister(m.ticks, m.recordsInserted, m.upstreamCalls)
	return m
}

// IncTick counts one finished tick by outcome class.
func (m *Metrics) IncTick(outcome string) {
	m.ticks.WithLabelValues(outcome).Inc()
}

// AddRecords counts persisted usage records.
func (m *Metrics) AddRecords(n int) {
	m.recordsInserted.Add(float64(n))
}

// ObserveUpstreamCall records one upstream call's latency.
func (m *Metrics) ObserveUpstreamCall(endpoint string, success bool, seconds float64) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.upstreamCalls.WithLabelValues(endpoint, outcome).Observe(seconds)
}
