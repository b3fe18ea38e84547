package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stickertrendz/pipeline/internal/model"
)

// StickerStore provides database operations for stickers.
type StickerStore struct {
	dbtx DBTX
}

func NewStickerStore(dbtx DBTX) *StickerStore {
	return &StickerStore{dbtx: dbtx}
}

const stickerColumns = `id, trend_id, title, description, artwork_url, mockup_url, thumbnail_url,
	size, price, floor_price, pricing_tier, moderation_status, marketplace_listing_id,
	published_at, sales_count, view_count, last_sale_at, fulfillment_provider,
	created_at, updated_at`

func scanSticker(row pgx.Row) (model.Sticker, error) {
	var s model.Sticker
	err := row.Scan(
		&s.ID, &s.TrendID, &s.Title, &s.Description, &s.ArtworkURL, &s.MockupURL, &s.ThumbnailURL,
		&s.Size, &s.Price, &s.FloorPrice, &s.PricingTier, &s.ModerationStatus, &s.MarketplaceListingID,
		&s.PublishedAt, &s.SalesCount, &s.ViewCount, &s.LastSaleAt, &s.FulfillmentProvider,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create inserts a newly generated sticker with moderation_status=pending.
func (s *StickerStore) Create(ctx context.Context, st model.Sticker) (model.Sticker, error) {
	query := `INSERT INTO stickers (
		trend_id, title, description, artwork_url, mockup_url, thumbnail_url,
		size, price, floor_price, pricing_tier, moderation_status, fulfillment_provider
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING ` + stickerColumns
	return scanSticker(s.dbtx.QueryRow(ctx, query,
		st.TrendID, st.Title, st.Description, st.ArtworkURL, st.MockupURL, st.ThumbnailURL,
		st.Size, st.Price, st.FloorPrice, st.PricingTier, st.ModerationStatus, st.FulfillmentProvider,
	))
}

// Get returns a single sticker by id.
func (s *StickerStore) Get(ctx context.Context, id uuid.UUID) (model.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers WHERE id = $1`
	st, err := scanSticker(s.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		return model.Sticker{}, fmt.Errorf("getting sticker: %w", err)
	}
	return st, nil
}

// GetByListingID returns the sticker holding the given marketplace listing
// id, the natural key used to match an incoming receipt to its sticker.
func (s *StickerStore) GetByListingID(ctx context.Context, listingID string) (*model.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers WHERE marketplace_listing_id = $1`
	st, err := scanSticker(s.dbtx.QueryRow(ctx, query, listingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting sticker by listing id: %w", err)
	}
	return &st, nil
}

// ListPublishedNonArchived returns every published sticker not in the
// archived pricing tier, the working set for the daily pricing cycle.
func (s *StickerStore) ListPublishedNonArchived(ctx context.Context) ([]model.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers
		WHERE published_at IS NOT NULL
		  AND moderation_status != 'archived'
		  AND pricing_tier != 'archived'
		ORDER BY created_at ASC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing published stickers: %w", err)
	}
	defer rows.Close()

	var out []model.Sticker
	for rows.Next() {
		st, err := scanSticker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sticker row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListArchivable returns candidate stickers for the archiver: listed,
// not archived, zero sales, zero views, published at least 14 days ago.
func (s *StickerStore) ListArchivable(ctx context.Context) ([]model.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers
		WHERE marketplace_listing_id IS NOT NULL
		  AND moderation_status != 'archived'
		  AND sales_count = 0
		  AND view_count = 0
		  AND published_at <= now() - interval '14 days'`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing archivable stickers: %w", err)
	}
	defer rows.Close()

	var out []model.Sticker
	for rows.Next() {
		st, err := scanSticker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sticker row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CountActiveListings counts stickers with a non-null listing id that are
// not archived, the population that counts toward MAX_ACTIVE_LISTINGS.
func (s *StickerStore) CountActiveListings(ctx context.Context) (int, error) {
	var count int
	query := `SELECT count(*) FROM stickers
		WHERE marketplace_listing_id IS NOT NULL AND moderation_status != 'archived'`
	if err := s.dbtx.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active listings: %w", err)
	}
	return count, nil
}

// UpdatePriceAndTier applies the pricing engine's price/tier decision.
func (s *StickerStore) UpdatePriceAndTier(ctx context.Context, id uuid.UUID, price float64, tier model.PricingTier) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE stickers SET price = $2, pricing_tier = $3, updated_at = now() WHERE id = $1`,
		id, price, tier)
	if err != nil {
		return fmt.Errorf("updating sticker price/tier: %w", err)
	}
	return nil
}

// UpdateTierOnly advances the tier field without touching price, used by
// the sales-override path where price is frozen but tier still moves.
func (s *StickerStore) UpdateTierOnly(ctx context.Context, id uuid.UUID, tier model.PricingTier) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE stickers SET pricing_tier = $2, updated_at = now() WHERE id = $1`, id, tier)
	if err != nil {
		return fmt.Errorf("updating sticker tier: %w", err)
	}
	return nil
}

// Archive marks a sticker archived, per the archiver sub-operation.
func (s *StickerStore) Archive(ctx context.Context, id uuid.UUID) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE stickers SET moderation_status = 'archived', pricing_tier = 'archived', updated_at = now() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("archiving sticker: %w", err)
	}
	return nil
}

// Publish records a successful marketplace listing creation.
func (s *StickerStore) Publish(ctx context.Context, id uuid.UUID, listingID string) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE stickers SET marketplace_listing_id = $2, published_at = now(), updated_at = now() WHERE id = $1`,
		id, listingID)
	if err != nil {
		return fmt.Errorf("publishing sticker: %w", err)
	}
	return nil
}

// RecordSale bumps sales_count and last_sale_at for an order's sticker.
func (s *StickerStore) RecordSale(ctx context.Context, id uuid.UUID, quantity int) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE stickers SET sales_count = sales_count + $2, last_sale_at = now(), updated_at = now() WHERE id = $1`,
		id, quantity)
	if err != nil {
		return fmt.Errorf("recording sticker sale: %w", err)
	}
	return nil
}

// CountSalesAtTier counts orders for this sticker whose pricing_tier_at_sale
// equals the given tier — the frozen input to the sales-override rule.
func (s *StickerStore) CountSalesAtTier(ctx context.Context, id uuid.UUID, tier model.PricingTier) (int, error) {
	var count int
	query := `SELECT count(*) FROM orders WHERE sticker_id = $1 AND pricing_tier_at_sale = $2`
	if err := s.dbtx.QueryRow(ctx, query, id, tier).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sales at tier: %w", err)
	}
	return count, nil
}

// HasRecentSale reports whether the sticker's last_sale_at falls within the
// last 14 days (used by the pricing engine's archive-to-evergreen
// override).
func (s *StickerStore) HasRecentSale(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
		SELECT 1 FROM stickers WHERE id = $1 AND last_sale_at >= now() - interval '14 days'
	)`
	if err := s.dbtx.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking recent sale: %w", err)
	}
	return exists, nil
}
