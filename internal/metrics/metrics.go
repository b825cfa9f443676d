// Package metrics defines the Prometheus collectors for balance computations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Outcome labels for computations.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeCanceled   = "canceled"
)

// Metrics holds the collectors recorded by the balance engine.
type Metrics struct {
	Computations *prometheus.CounterVec
	Duration     prometheus.Histogram
	Anomalies    *prometheus.CounterVec
	GroupsPerRun prometheus.Histogram

	// Superseded counts refreshes discarded because a newer one started.
	Superseded prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_computations_total",
			Help:      "Balance computations by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_computation_seconds",
			Help:      "Time spent fetching and computing balances.",
			Buckets:   prometheus.DefBuckets,
		}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Records skipped or degraded during balance computation, by kind.",
		}, []string{"kind"}),
		GroupsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "groups_per_computation",
			Help:      "Number of groups fetched per balance computation.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_refreshes_superseded_total",
			Help:      "Balance refreshes discarded because a newer refresh for the same user started.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Computations, m.Duration, m.Anomalies, m.GroupsPerRun, m.Superseded)
	}
	return m
}

// ObserveComputation records one finished computation.
func (m *Metrics) ObserveComputation(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}

// ObserveAnomaly counts one anomaly of the given kind.
func (m *Metrics) ObserveAnomaly(kind string) {
	if m == nil {
		return
	}
	m.Anomalies.WithLabelValues(kind).Inc()
}

// ObserveGroups records how many groups one computation covered.
func (m *Metrics) ObserveGroups(n int) {
	if m == nil {
		return
	}
	m.GroupsPerRun.Observe(float64(n))
}

// ObserveSuperseded counts one discarded refresh.
func (m *Metrics) ObserveSuperseded() {
	if m == nil {
		return
	}
	m.Superseded.Inc()
}
