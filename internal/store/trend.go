package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stickertrendz/pipeline/internal/model"
)

// TrendStore provides database operations for trends.
type TrendStore struct {
	dbtx DBTX
}

func NewTrendStore(dbtx DBTX) *TrendStore {
	return &TrendStore{dbtx: dbtx}
}

const trendColumns = `id, topic, normalized_topic, sources, keywords,
	velocity_score, commercial_score, safety_score, uniqueness_score,
	overall_score, status, created_at, updated_at`

func scanTrend(row pgx.Row) (model.Trend, error) {
	var t model.Trend
	err := row.Scan(
		&t.ID, &t.Topic, &t.NormalizedTopic, &t.Sources, &t.Keywords,
		&t.VelocityScore, &t.CommercialScore, &t.SafetyScore, &t.UniquenessScore,
		&t.OverallScore, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetByNormalizedTopic returns the trend matching the given dedup key, if any.
func (s *TrendStore) GetByNormalizedTopic(ctx context.Context, normalizedTopic string) (*model.Trend, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE normalized_topic = $1`
	t, err := scanTrend(s.dbtx.QueryRow(ctx, query, normalizedTopic))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting trend by normalized_topic: %w", err)
	}
	return &t, nil
}

// Get returns a single trend by id.
func (s *TrendStore) Get(ctx context.Context, id uuid.UUID) (model.Trend, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE id = $1`
	t, err := scanTrend(s.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		return model.Trend{}, fmt.Errorf("getting trend: %w", err)
	}
	return t, nil
}

// Create inserts a brand new trend row. Callers must have already confirmed
// via GetByNormalizedTopic that no row with this normalized_topic exists;
// the unique constraint on normalized_topic is the last line of defense.
func (s *TrendStore) Create(ctx context.Context, t model.Trend) (model.Trend, error) {
	query := `INSERT INTO trends (
		topic, normalized_topic, sources, keywords,
		velocity_score, commercial_score, safety_score, uniqueness_score,
		overall_score, status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + trendColumns
	return scanTrend(s.dbtx.QueryRow(ctx, query,
		t.Topic, t.NormalizedTopic, t.Sources, t.Keywords,
		t.VelocityScore, t.CommercialScore, t.SafetyScore, t.UniquenessScore,
		t.OverallScore, t.Status,
	))
}

// UnionSources appends any source tags not already present onto an existing
// trend's source set. Used by the deduplicator's store-reconciliation step.
func (s *TrendStore) UnionSources(ctx context.Context, id uuid.UUID, sources []string) error {
	query := `UPDATE trends
		SET sources = (SELECT array_agg(DISTINCT s) FROM unnest(sources || $2::text[]) AS s),
		    updated_at = now()
		WHERE id = $1`
	_, err := s.dbtx.Exec(ctx, query, id, sources)
	if err != nil {
		return fmt.Errorf("unioning trend sources: %w", err)
	}
	return nil
}

// SetStatus transitions a trend's lifecycle status.
func (s *TrendStore) SetStatus(ctx context.Context, id uuid.UUID, status model.TrendStatus) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE trends SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("setting trend status: %w", err)
	}
	return nil
}

// ListByStatus returns all trends in the given status, oldest first.
func (s *TrendStore) ListByStatus(ctx context.Context, status model.TrendStatus, limit int) ([]model.Trend, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	rows, err := s.dbtx.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trends by status: %w", err)
	}
	defer rows.Close()

	var out []model.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trend row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
