package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/internal/telemetry"
	"github.com/stickertrendz/pipeline/pkg/resilience"
)

// ErrorLedger provides sanitized, synchronous error logging. A write
// failure here must never abort the caller's workflow — it is logged
// locally at critical severity instead.
type ErrorLedger struct {
	store  *store.ErrorStore
	logger *slog.Logger
}

// NewErrorLedger builds an error ledger over the given error store.
func NewErrorLedger(s *store.ErrorStore, logger *slog.Logger) *ErrorLedger {
	return &ErrorLedger{store: s, logger: logger}
}

// LogErrorParams bundles the fields of a single error event.
type LogErrorParams struct {
	Workflow      string
	Step          string
	Kind          resilience.Kind
	Message       string
	Service       string
	PipelineRunID *uuid.UUID
	RetryCount    int
	Context       map[string]any
}

// LogError sanitizes message and context, writes the row, and returns its
// id. On a store failure it logs locally at error level and returns
// uuid.Nil — never an error the caller must handle, since a ledger-write
// failure must not abort the workflow.
func (l *ErrorLedger) LogError(ctx context.Context, p LogErrorParams) uuid.UUID {
	telemetry.ErrorsTotal.WithLabelValues(p.Workflow, string(p.Kind)).Inc()

	row := model.ErrorLog{
		Workflow:      p.Workflow,
		Step:          p.Step,
		Kind:          model.ErrorKind(p.Kind),
		Message:       SanitizeString(p.Message),
		Service:       p.Service,
		PipelineRunID: p.PipelineRunID,
		RetryCount:    p.RetryCount,
		Context:       SanitizeContext(p.Context),
	}

	id, err := l.store.Create(ctx, row)
	if err != nil {
		l.logger.Error("failed to write to error_log, logging locally",
			"workflow", p.Workflow, "step", p.Step, "kind", p.Kind,
			"message", row.Message, "error", err)
		return uuid.Nil
	}
	return id
}

// Resolve marks an error row resolved.
func (l *ErrorLedger) Resolve(ctx context.Context, id uuid.UUID) error {
	return l.store.Resolve(ctx, id)
}

// Recent returns the most recent rows for a workflow, newest first.
func (l *ErrorLedger) Recent(ctx context.Context, workflow string, limit int) ([]model.ErrorLog, error) {
	return l.store.Recent(ctx, workflow, limit)
}

// ConsecutiveFailures reports whether the last n rows for a workflow are
// all unresolved.
func (l *ErrorLedger) ConsecutiveFailures(ctx context.Context, workflow string, n int) (bool, error) {
	return l.store.ConsecutiveFailures(ctx, workflow, n)
}
