package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cancelwatch_orders_total",
			Help: "Order records read from a source, by outcome",
		},
		[]string{"outcome"},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cancelwatch_window_transitions_total",
			Help: "Per-company window transitions caused by orders and end-of-stream flushes",
		},
		[]string{"transition"},
	)

	CompaniesFlaggedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cancelwatch_companies_flagged_total",
			Help: "Companies classified as excessive cancellers",
		},
	)

	RunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cancelwatch_runs_total",
			Help: "Finished analysis runs",
		},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cancelwatch_run_duration_seconds",
			Help:    "Wall time between the first order of a run and its end of stream",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Register registers every collector with the default registry.
func Register() {
	prometheus.MustRegister(OrdersTotal)
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(CompaniesFlaggedTotal)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
}
