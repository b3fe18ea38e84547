package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/external"
)

// Archiver delists stickers that have sat published for 14+ days with zero
// sales and zero views, freeing their slot against MAX_ACTIVE_LISTINGS.
// Runs before the per-sticker repricing loop so freed slots are visible
// to the same cycle.
type Archiver struct {
	stickers     *store.StickerStore
	priceHistory *store.PriceHistoryStore
	marketplace  external.Marketplace
	logger       *slog.Logger
}

// NewArchiver builds an Archiver. marketplace may be nil, in which case
// the listing deactivation step is skipped and only the local record is
// archived.
func NewArchiver(stickers *store.StickerStore, priceHistory *store.PriceHistoryStore, marketplace external.Marketplace, logger *slog.Logger) *Archiver {
	return &Archiver{stickers: stickers, priceHistory: priceHistory, marketplace: marketplace, logger: logger}
}

// Run archives every eligible sticker and returns the count successfully
// archived. A failure to deactivate the live marketplace listing is logged
// but does not stop the local archive from proceeding — matching the
// original's "archive the record even if deactivation failed" behavior.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	candidates, err := a.stickers.ListArchivable(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing archivable stickers: %w", err)
	}

	archived := 0
	for _, s := range candidates {
		if err := a.archiveOne(ctx, s); err != nil {
			if a.logger != nil {
				a.logger.Error("failed to archive sticker", "sticker_id", s.ID, "error", err)
			}
			continue
		}
		archived++
	}

	return archived, nil
}

func (a *Archiver) archiveOne(ctx context.Context, s model.Sticker) error {
	if a.marketplace != nil && s.MarketplaceListingID != nil {
		if err := a.marketplace.Deactivate(ctx, *s.MarketplaceListingID); err != nil {
			if a.logger != nil {
				a.logger.Error("failed to deactivate marketplace listing before archive",
					"sticker_id", s.ID, "listing_id", *s.MarketplaceListingID, "error", err)
			}
			// Fall through: the local record still gets archived.
		}
	}

	if err := a.stickers.Archive(ctx, s.ID); err != nil {
		return fmt.Errorf("archiving sticker record: %w", err)
	}

	if err := a.priceHistory.Create(ctx, model.PriceHistory{
		StickerID:   s.ID,
		OldPrice:    s.Price,
		NewPrice:    0,
		PricingTier: model.TierArchived,
		Reason:      "archived",
	}); err != nil {
		return fmt.Errorf("recording archive price history: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("archived sticker", "sticker_id", s.ID)
	}

	return nil
}
