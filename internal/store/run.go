package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stickertrendz/pipeline/internal/model"
)

// RunStore provides database operations for pipeline_runs, the table
// backing the run ledger.
type RunStore struct {
	dbtx DBTX
}

func NewRunStore(dbtx DBTX) *RunStore {
	return &RunStore{dbtx: dbtx}
}

const runColumns = `id, workflow, status, started_at, ended_at, duration_seconds,
	trends_found, stickers_generated, prices_updated, stickers_archived,
	errors_count, api_calls_used, ai_cost_estimate_usd, metadata`

func scanRun(row pgx.Row) (model.PipelineRun, error) {
	var r model.PipelineRun
	var metadata []byte
	err := row.Scan(
		&r.ID, &r.Workflow, &r.Status, &r.StartedAt, &r.EndedAt, &r.DurationSeconds,
		&r.TrendsFound, &r.StickersGenerated, &r.PricesUpdated, &r.StickersArchived,
		&r.ErrorsCount, &r.APICallsUsed, &r.AICostEstimateUSD, &metadata,
	)
	if err != nil {
		return r, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return r, fmt.Errorf("unmarshaling run metadata: %w", err)
		}
	}
	return r, nil
}

// Start inserts a new started run row and returns it.
func (s *RunStore) Start(ctx context.Context, workflow string, metadata map[string]any) (model.PipelineRun, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return model.PipelineRun{}, fmt.Errorf("marshaling run metadata: %w", err)
	}
	query := `INSERT INTO pipeline_runs (workflow, status, started_at, metadata)
		VALUES ($1, 'started', now(), $2)
		RETURNING ` + runColumns
	return scanRun(s.dbtx.QueryRow(ctx, query, workflow, meta))
}

// Terminal is the set of fields recorded at any terminal transition.
type Terminal struct {
	Status            model.RunStatus
	DurationSeconds   int
	TrendsFound       int
	StickersGenerated int
	PricesUpdated     int
	StickersArchived  int
	ErrorsCount       int
	APICallsUsed      int
	AICostEstimateUSD float64
	Metadata          map[string]any
}

// Close records a terminal status (completed/partial/failed) for a run.
func (s *RunStore) Close(ctx context.Context, id uuid.UUID, t Terminal) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling run metadata: %w", err)
	}
	query := `UPDATE pipeline_runs SET
		status = $2, ended_at = now(), duration_seconds = $3,
		trends_found = $4, stickers_generated = $5, prices_updated = $6,
		stickers_archived = $7, errors_count = $8, api_calls_used = $9,
		ai_cost_estimate_usd = $10, metadata = $11
		WHERE id = $1`
	_, err = s.dbtx.Exec(ctx, query, id,
		t.Status, t.DurationSeconds, t.TrendsFound, t.StickersGenerated, t.PricesUpdated,
		t.StickersArchived, t.ErrorsCount, t.APICallsUsed, t.AICostEstimateUSD, meta,
	)
	if err != nil {
		return fmt.Errorf("closing pipeline run: %w", err)
	}
	return nil
}

// Get returns a single run by id.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (model.PipelineRun, error) {
	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE id = $1`
	return scanRun(s.dbtx.QueryRow(ctx, query, id))
}

// SumAICostBetween sums ai_cost_estimate_usd for runs with started_at in
// [from, to), treating null/absent as 0. Backs both the daily and monthly
// spend totals the spend governor checks against budget.
func (s *RunStore) SumAICostBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var sum float64
	query := `SELECT COALESCE(SUM(ai_cost_estimate_usd), 0) FROM pipeline_runs
		WHERE started_at >= $1 AND started_at < $2`
	if err := s.dbtx.QueryRow(ctx, query, from, to).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing ai cost: %w", err)
	}
	return sum, nil
}

// PurgeOlderThanDays deletes pipeline_runs rows older than the given
// retention window (180 days per the retention sweep) and returns the
// count removed.
func (s *RunStore) PurgeOlderThanDays(ctx context.Context, days int) (int64, error) {
	tag, err := s.dbtx.Exec(ctx,
		`DELETE FROM pipeline_runs WHERE started_at <= now() - ($1 || ' days')::interval`, days)
	if err != nil {
		return 0, fmt.Errorf("purging old pipeline_runs rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
