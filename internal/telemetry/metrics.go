package telemetry

import "github.com/prometheus/client_golang/prometheus"

var PipelineRunDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "stickertrendz",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Workflow run duration in seconds, by workflow and terminal status.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	},
	[]string{"workflow", "status"},
)

var ErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "errors",
		Name:      "total",
		Help:      "Total number of errors logged, by workflow and error kind.",
	},
	[]string{"workflow", "kind"},
)

var APICallsUsedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "ratelimit",
		Name:      "api_calls_used_total",
		Help:      "Total marketplace API calls consumed, by workflow.",
	},
	[]string{"workflow"},
)

var AISpendUSD = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "spend",
		Name:      "ai_cost_usd_total",
		Help:      "Estimated AI spend in USD, by workflow.",
	},
	[]string{"workflow"},
)

var PricesChangedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "pricing",
		Name:      "prices_changed_total",
		Help:      "Total sticker price changes, by reason.",
	},
	[]string{"reason"},
)

var StickersArchivedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "pricing",
		Name:      "stickers_archived_total",
		Help:      "Total stickers archived by the pricing engine's archiver.",
	},
)

var TrendsDedupedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "dedup",
		Name:      "merges_total",
		Help:      "Total number of candidate trends merged into an existing canonical entry.",
	},
)

var CircuitBreakerOpenTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stickertrendz",
		Subsystem: "resilience",
		Name:      "circuit_open_total",
		Help:      "Total number of times a circuit breaker tripped open, by service.",
	},
	[]string{"service"},
)

// All returns every pipeline metric for registration with a process-local registry.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		PipelineRunDuration,
		ErrorsTotal,
		APICallsUsedTotal,
		AISpendUSD,
		PricesChangedTotal,
		StickersArchivedTotal,
		TrendsDedupedTotal,
		CircuitBreakerOpenTotal,
	}
}
