package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
)

// RunLedger tracks start/complete/fail/partial transitions for
// pipeline_runs, with duration measured from an in-process monotonic clock
// rather than wall-clock comparison across start and terminal calls.
type RunLedger struct {
	store *store.RunStore

	mu         sync.Mutex
	startTimes map[uuid.UUID]time.Time
}

// NewRunLedger builds a ledger over the given run store.
func NewRunLedger(s *store.RunStore) *RunLedger {
	return &RunLedger{store: s, startTimes: make(map[uuid.UUID]time.Time)}
}

// Start opens a new run row and records its monotonic start time.
// If the process crashes before any terminal call, the row remains in
// status "started" indefinitely; reconciling it is an operator task,
// not something this ledger attempts.
func (l *RunLedger) Start(ctx context.Context, workflow string, metadata map[string]any) (uuid.UUID, error) {
	run, err := l.store.Start(ctx, workflow, metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("starting pipeline run: %w", err)
	}

	l.mu.Lock()
	l.startTimes[run.ID] = time.Now()
	l.mu.Unlock()

	return run.ID, nil
}

func (l *RunLedger) elapsed(runID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	start, ok := l.startTimes[runID]
	if !ok {
		return 0
	}
	delete(l.startTimes, runID)
	return int(time.Since(start).Seconds())
}

// Counts bundles the per-run counters recorded at any terminal transition.
type Counts struct {
	TrendsFound       int
	StickersGenerated int
	PricesUpdated     int
	StickersArchived  int
	ErrorsCount       int
	APICallsUsed      int
	AICostEstimateUSD float64
}

// Complete closes a run with status=completed.
func (l *RunLedger) Complete(ctx context.Context, runID uuid.UUID, c Counts, metadata map[string]any) error {
	return l.close(ctx, runID, model.RunCompleted, c, metadata)
}

// Partial closes a run with status=partial: errors occurred but some
// progress was made.
func (l *RunLedger) Partial(ctx context.Context, runID uuid.UUID, c Counts, metadata map[string]any) error {
	return l.close(ctx, runID, model.RunPartial, c, metadata)
}

// Fail closes a run with status=failed, recording the error message in metadata.
func (l *RunLedger) Fail(ctx context.Context, runID uuid.UUID, errorMessage string, c Counts) error {
	metadata := map[string]any{"error": SanitizeString(errorMessage)}
	return l.close(ctx, runID, model.RunFailed, c, metadata)
}

func (l *RunLedger) close(ctx context.Context, runID uuid.UUID, status model.RunStatus, c Counts, metadata map[string]any) error {
	err := l.store.Close(ctx, runID, store.Terminal{
		Status:            status,
		DurationSeconds:   l.elapsed(runID),
		TrendsFound:       c.TrendsFound,
		StickersGenerated: c.StickersGenerated,
		PricesUpdated:     c.PricesUpdated,
		StickersArchived:  c.StickersArchived,
		ErrorsCount:       c.ErrorsCount,
		APICallsUsed:      c.APICallsUsed,
		AICostEstimateUSD: c.AICostEstimateUSD,
		Metadata:          metadata,
	})
	if err != nil {
		return fmt.Errorf("closing pipeline run %s: %w", runID, err)
	}
	return nil
}

// EstimateCost is the pure cost-estimation helper: multiplies configurable
// per-token and per-image rates (defaults may be zero).
func EstimateCost(inputTokens, outputTokens, images int, inputCostPerToken, outputCostPerToken, costPerImage float64) float64 {
	return float64(inputTokens)*inputCostPerToken +
		float64(outputTokens)*outputCostPerToken +
		float64(images)*costPerImage
}
