package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/model"
)

// PriceHistoryStore provides append-only writes to price_history.
type PriceHistoryStore struct {
	dbtx DBTX
}

func NewPriceHistoryStore(dbtx DBTX) *PriceHistoryStore {
	return &PriceHistoryStore{dbtx: dbtx}
}

// Create appends a price-change record. The table is append-only; rows are
// never updated, only archived to cold storage after one year (see
// pkg/retention's price_history archival).
func (s *PriceHistoryStore) Create(ctx context.Context, ph model.PriceHistory) error {
	query := `INSERT INTO price_history (sticker_id, old_price, new_price, pricing_tier, reason)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.dbtx.Exec(ctx, query, ph.StickerID, ph.OldPrice, ph.NewPrice, ph.PricingTier, ph.Reason)
	if err != nil {
		return fmt.Errorf("creating price history row: %w", err)
	}
	return nil
}

// ListOlderThanOneYear returns price_history rows eligible for cold-storage
// archival (older than 365 days).
func (s *PriceHistoryStore) ListOlderThanOneYear(ctx context.Context) ([]model.PriceHistory, error) {
	query := `SELECT id, sticker_id, old_price, new_price, pricing_tier, reason, created_at
		FROM price_history WHERE created_at <= now() - interval '365 days'
		ORDER BY created_at ASC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing aged price history: %w", err)
	}
	defer rows.Close()

	var out []model.PriceHistory
	for rows.Next() {
		var ph model.PriceHistory
		if err := rows.Scan(&ph.ID, &ph.StickerID, &ph.OldPrice, &ph.NewPrice, &ph.PricingTier, &ph.Reason, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning price history row: %w", err)
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

// DeleteByIDs removes price_history rows by id, used after successful
// cold-blob archival.
func (s *PriceHistoryStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	_, err := s.dbtx.Exec(ctx, `DELETE FROM price_history WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("deleting archived price history: %w", err)
	}
	return nil
}
