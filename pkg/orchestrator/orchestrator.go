// Package orchestrator implements the shared workflow skeleton: lock
// acquisition, budget/priority admission, run-ledger bookkeeping, and
// guaranteed lock release, wrapping each of the four workflow bodies in
// trendmonitor.go, stickergenerator.go, pricingengine.go, and
// analyticssync.go.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/email"
	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/telemetry"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/ratelimit"
	"github.com/stickertrendz/pipeline/pkg/resilience"
	"github.com/stickertrendz/pipeline/pkg/spend"
)

// Deps bundles the cross-cutting collaborators every workflow body needs.
// Constructed once in main and passed down explicitly — per the source's
// re-architecture note, nothing here is a package-level singleton.
type Deps struct {
	Runs      *ledger.RunLedger
	Errors    *ledger.ErrorLedger
	RateLimit *ratelimit.Governor
	Spend     *spend.Governor
	Breakers  *resilience.BreakerRegistry
	Alerter   *email.Alerter
	Logger    *slog.Logger
}

// Admission is the result of the pre-body budget/priority check.
type Admission struct {
	Allowed bool
	Reason  string // "lock_held", "rate_limit", "budget", "" when allowed
}

// Body is a workflow's business logic. It receives the started run id and
// returns the counters to record, any extra terminal metadata, and an
// error only for conditions that should fail the entire run (per-item
// failures must be caught inside Body and folded into Counts.ErrorsCount
// instead of returned here).
type Body func(ctx context.Context, runID uuid.UUID) (ledger.Counts, map[string]any, error)

// AdmissionCheck evaluates whether a workflow body may proceed, beyond the
// lock itself (budget caps, API-call priority admission, or both).
type AdmissionCheck func(ctx context.Context) (Admission, error)

// Run executes the shared skeleton for one workflow invocation:
// start the run, acquire its named lock, check admission, execute the
// body, close the run with the appropriate terminal status, and always
// release the lock. It returns the final run status and a nil error
// unless the skeleton itself (not the body) failed unrecoverably.
func Run(ctx context.Context, d *Deps, workflow string, admit AdmissionCheck, body Body) (status model.RunStatus, runErr error) {
	start := time.Now()
	defer func() {
		if status != "" {
			telemetry.PipelineRunDuration.WithLabelValues(workflow, string(status)).Observe(time.Since(start).Seconds())
		}
	}()

	runID, err := d.Runs.Start(ctx, workflow, nil)
	if err != nil {
		return "", fmt.Errorf("starting %s run: %w", workflow, err)
	}

	lock, err := d.RateLimit.AcquireLock(ctx, workflow)
	if err != nil {
		d.Logger.Error("lock acquisition errored, treating as not acquired", "workflow", workflow, "error", err)
	}
	if lock == nil {
		d.Logger.Info("another run holds the lock, exiting", "workflow", workflow)
		_ = d.Runs.Complete(ctx, runID, ledger.Counts{}, map[string]any{"skipped": "lock_held"})
		return model.RunCompleted, nil
	}
	defer d.RateLimit.ReleaseLock(ctx, lock)

	if admit != nil {
		admission, err := admit(ctx)
		if err != nil {
			d.Logger.Error("admission check errored, denying by default", "workflow", workflow, "error", err)
			admission = Admission{Allowed: false, Reason: "admission_check_error"}
		}
		if !admission.Allowed {
			d.Logger.Info("admission denied, skipping run", "workflow", workflow, "reason", admission.Reason)
			_ = d.Runs.Complete(ctx, runID, ledger.Counts{}, map[string]any{"skipped": admission.Reason})
			return model.RunCompleted, nil
		}
	}

	counts, metadata, bodyErr := body(ctx, runID)

	if bodyErr != nil {
		d.Logger.Error("workflow failed", "workflow", workflow, "error", bodyErr)
		if closeErr := d.Runs.Fail(ctx, runID, bodyErr.Error(), counts); closeErr != nil {
			d.Logger.Error("failed to close failed run", "workflow", workflow, "error", closeErr)
		}
		d.Alerter.SendAlert(ctx, fmt.Sprintf("%s failed", workflow), bodyErr.Error(), email.LevelCritical)
		return model.RunFailed, nil
	}

	status = model.RunCompleted
	if counts.ErrorsCount > 0 {
		status = model.RunPartial
	}

	telemetry.APICallsUsedTotal.WithLabelValues(workflow).Add(float64(counts.APICallsUsed))
	telemetry.AISpendUSD.WithLabelValues(workflow).Add(counts.AICostEstimateUSD)
	telemetry.StickersArchivedTotal.Add(float64(counts.StickersArchived))

	var closeErr error
	switch status {
	case model.RunPartial:
		closeErr = d.Runs.Partial(ctx, runID, counts, metadata)
	default:
		closeErr = d.Runs.Complete(ctx, runID, counts, metadata)
	}
	if closeErr != nil {
		d.Logger.Error("failed to close run", "workflow", workflow, "status", status, "error", closeErr)
	}

	return status, nil
}
