// Package metrics declares the Prometheus instrumentation for the engine
// and session layers. Collectors register on the default registry and are
// served on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RunsTotal counts graph executions by outcome.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_runs_total",
			Help: "Total number of graph execution runs.",
		},
		[]string{"status"},
	)

	// NodeExecutionsTotal counts handler invocations by node type and outcome.
	NodeExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_node_executions_total",
			Help: "Total number of node handler invocations.",
		},
		[]string{"node_type", "status"},
	)

	// NodeDuration observes handler wall time by node type.
	NodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodeflow_node_duration_seconds",
			Help:    "Node handler execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node_type"},
	)

	// ActiveSessions gauges currently connected client sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeflow_active_sessions",
			Help: "Number of websocket sessions currently connected.",
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(NodeExecutionsTotal)
	prometheus.MustRegister(NodeDuration)
	prometheus.MustRegister(ActiveSessions)
}
