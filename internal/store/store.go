// Package store provides pgx-backed persistence for every relational table
// in the pipeline (trends, stickers, orders, pipeline_runs, error_log,
// price_history). Column-name whitelists from internal/model gate any
// caller-driven filter construction.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every store is
// coded against the narrowest usable interface rather than a concrete pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DBTX = (*pgxpool.Pool)(nil)
var _ DBTX = (pgx.Tx)(nil)

// Stores bundles every per-entity store behind the shared DBTX so orchestrators
// construct one value at startup rather than wiring each table individually.
type Stores struct {
	Trends        *TrendStore
	Stickers      *StickerStore
	Orders        *OrderStore
	Runs          *RunStore
	Errors        *ErrorStore
	PriceHistory  *PriceHistoryStore
}

// New constructs every per-entity store over the given connection.
func New(dbtx DBTX) *Stores {
	return &Stores{
		Trends:       NewTrendStore(dbtx),
		Stickers:     NewStickerStore(dbtx),
		Orders:       NewOrderStore(dbtx),
		Runs:         NewRunStore(dbtx),
		Errors:       NewErrorStore(dbtx),
		PriceHistory: NewPriceHistoryStore(dbtx),
	}
}

// ErrColumnNotWhitelisted is returned when a caller-supplied column name is
// not in the table's closed whitelist, preventing filter-key injection.
type ErrColumnNotWhitelisted struct {
	Table  string
	Column string
}

func (e *ErrColumnNotWhitelisted) Error() string {
	return "column not whitelisted for table " + e.Table + ": " + e.Column
}
