package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stickertrendz/pipeline/internal/model"
)

// ErrorStore provides database operations for error_log. Sanitization of
// message/context happens in pkg/ledger before any row reaches this
// store — the store itself never inspects payload contents.
type ErrorStore struct {
	dbtx DBTX
}

func NewErrorStore(dbtx DBTX) *ErrorStore {
	return &ErrorStore{dbtx: dbtx}
}

const errorColumns = `id, workflow, step, kind, message, service, pipeline_run_id,
	retry_count, resolved, context, created_at`

func scanError(row pgx.Row) (model.ErrorLog, error) {
	var e model.ErrorLog
	var context []byte
	err := row.Scan(
		&e.ID, &e.Workflow, &e.Step, &e.Kind, &e.Message, &e.Service, &e.PipelineRunID,
		&e.RetryCount, &e.Resolved, &context, &e.CreatedAt,
	)
	if err != nil {
		return e, err
	}
	if len(context) > 0 {
		if err := json.Unmarshal(context, &e.Context); err != nil {
			return e, fmt.Errorf("unmarshaling error context: %w", err)
		}
	}
	return e, nil
}

// Create inserts an already-sanitized error row and returns its id.
func (s *ErrorStore) Create(ctx context.Context, e model.ErrorLog) (uuid.UUID, error) {
	ctxJSON, err := json.Marshal(e.Context)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling error context: %w", err)
	}
	query := `INSERT INTO error_log (workflow, step, kind, message, service, pipeline_run_id, retry_count, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id uuid.UUID
	err = s.dbtx.QueryRow(ctx, query,
		e.Workflow, e.Step, e.Kind, e.Message, e.Service, e.PipelineRunID, e.RetryCount, ctxJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating error log row: %w", err)
	}
	return id, nil
}

// Resolve sets resolved=true on an error row.
func (s *ErrorStore) Resolve(ctx context.Context, id uuid.UUID) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE error_log SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("resolving error: %w", err)
	}
	return nil
}

// Recent returns the most recent error rows for a workflow, newest first.
func (s *ErrorStore) Recent(ctx context.Context, workflow string, limit int) ([]model.ErrorLog, error) {
	query := `SELECT ` + errorColumns + ` FROM error_log
		WHERE workflow = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.dbtx.Query(ctx, query, workflow, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent errors: %w", err)
	}
	defer rows.Close()

	var out []model.ErrorLog
	for rows.Next() {
		e, err := scanError(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning error row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ConsecutiveFailures reports whether the last n rows for a workflow are
// all unresolved, backing the error ledger's consecutive-failure detector.
func (s *ErrorStore) ConsecutiveFailures(ctx context.Context, workflow string, n int) (bool, error) {
	recent, err := s.Recent(ctx, workflow, n)
	if err != nil {
		return false, err
	}
	if len(recent) < n {
		return false, nil
	}
	for _, e := range recent {
		if e.Resolved {
			return false, nil
		}
	}
	return true, nil
}

// PurgeOlderThanDays deletes error_log rows older than the given retention
// window (90 days per the retention sweep) and returns the count removed.
func (s *ErrorStore) PurgeOlderThanDays(ctx context.Context, days int) (int64, error) {
	tag, err := s.dbtx.Exec(ctx,
		`DELETE FROM error_log WHERE created_at <= now() - ($1 || ' days')::interval`, days)
	if err != nil {
		return 0, fmt.Errorf("purging old error_log rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
