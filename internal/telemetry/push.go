package telemetry

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry bundles a process-local Prometheus registry with the push
// target used by short-lived batch jobs (unlike a long-lived server,
// a cron-triggered workflow process has nothing to scrape it, so it
// pushes its final metrics to a Pushgateway on the way out).
type Registry struct {
	reg      *prometheus.Registry
	pusher   *push.Pusher
	gatewayURL string
	logger   *slog.Logger
}

// NewRegistry registers all pipeline metrics and, if gatewayURL is set,
// prepares a pusher for the named job.
func NewRegistry(job, gatewayURL string, logger *slog.Logger, collectors ...prometheus.Collector) *Registry {
	reg := prometheus.NewRegistry()
	for _, c := range collectors {
		reg.MustRegister(c)
	}

	r := &Registry{reg: reg, gatewayURL: gatewayURL, logger: logger}
	if gatewayURL != "" {
		r.pusher = push.New(gatewayURL, job).Gatherer(reg)
	}
	return r
}

// Flush pushes the current metric state to the Pushgateway. It is a
// best-effort operation: a failure is logged but never returned to the
// caller, matching the "alerts never block the workflow" rule applied
// throughout the pipeline.
func (r *Registry) Flush() {
	if r.pusher == nil {
		return
	}
	if err := r.pusher.Push(); err != nil {
		r.logger.Warn("pushing metrics to pushgateway", "error", err, "gateway", r.gatewayURL)
	}
}
