package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casegraph_transitions_total",
		Help: "Total number of visible-graph transitions, labelled by action kind.",
	}, []string{"action"})

	PullInLimitReached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casegraph_pull_in_limit_reached_total",
		Help: "Total number of neighbour pull-ins truncated at the cap.",
	})

	VisibleNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casegraph_visible_nodes",
		Help:    "Visible node count after each transition.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	GraphLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casegraph_graph_loads_total",
		Help: "Total number of case graph loads, labelled by status.",
	}, []string{"status"})

	StaleLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casegraph_stale_loads_total",
		Help: "Total number of graph responses discarded because a newer load or reset superseded them.",
	})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casegraph_fetch_duration_ms",
		Help:    "Upstream graph fetch latency in milliseconds, labelled by status.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"status"})

	FetchesShared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casegraph_fetches_shared_total",
		Help: "Total number of fetches answered by an in-flight request for the same case.",
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "casegraph_breaker_state",
		Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casegraph_active_sessions",
		Help: "Current number of open investigation sessions.",
	})
)
