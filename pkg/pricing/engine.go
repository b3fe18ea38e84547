package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/internal/telemetry"
	"github.com/stickertrendz/pipeline/pkg/external"
)

// Engine applies the daily per-sticker pricing decision (the most
// algorithmically rich component): tier lookup by trend age, the
// sales-override freeze, floor-price enforcement, and price-point
// rounding, writing the outcome to stickers and price_history.
type Engine struct {
	stickers      *store.StickerStore
	trends        *store.TrendStore
	priceHistory  *store.PriceHistoryStore
	marketplace   external.Marketplace
	shippingRates ShippingRateLookup
	logger        *slog.Logger
}

// NewEngine builds a pricing Engine. marketplace and shippingRates may be
// nil; a nil marketplace skips the live listing-price update (the sticker
// and price_history rows still update), and a nil shippingRates lookup
// falls back to the fixed self_usps costs as FloorPrice does.
func NewEngine(stickers *store.StickerStore, trends *store.TrendStore, priceHistory *store.PriceHistoryStore, marketplace external.Marketplace, shippingRates ShippingRateLookup, logger *slog.Logger) *Engine {
	return &Engine{
		stickers:      stickers,
		trends:        trends,
		priceHistory:  priceHistory,
		marketplace:   marketplace,
		shippingRates: shippingRates,
		logger:        logger,
	}
}

// productType maps a sticker's size class to the floor-price cost table key.
// The two vocabularies are already aligned, but the mapping stays explicit
// so a future size class doesn't silently fall through.
func productType(size model.SizeClass) string {
	if size == model.SizeSingleLarge {
		return "single_large"
	}
	return "single_small"
}

// trendAgeDays returns the age in whole days of the trend behind a sticker,
// falling back to the sticker's own creation time if the trend row is
// missing (mirrors the original's "trend.created_at or sticker.created_at").
func (e *Engine) trendAgeDays(ctx context.Context, s model.Sticker) int {
	createdAt := s.CreatedAt

	trend, err := e.trends.Get(ctx, s.TrendID)
	if err == nil {
		createdAt = trend.CreatedAt
	}

	days := int(time.Since(createdAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ProcessSticker applies the tier/override/floor/rounding decision to a
// single sticker. It returns true when it wrote a new price and/or tier
// together with a price_history row, including a tier-only change at an
// unchanged price. A false return with a nil error covers every other
// path: the sales override froze the price (its tier-only update returns
// false), the sticker is a day-30+ zero-sale
// candidate left for the archiver, or the computed price and tier already
// match what's stored.
func (e *Engine) ProcessSticker(ctx context.Context, s model.Sticker) (bool, error) {
	age := e.trendAgeDays(ctx, s)
	newTier := TierForAge(age)

	if age >= 30 {
		hasRecentSale, err := e.stickers.HasRecentSale(ctx, s.ID)
		if err != nil {
			return false, fmt.Errorf("checking recent sales: %w", err)
		}
		if !hasRecentSale {
			if s.SalesCount == 0 {
				// Zero-sale, zero-recency stickers at 30+ days are the
				// archiver's responsibility, not the repricer's.
				return false, nil
			}
			newTier = model.TierEvergreen
		}
	}

	salesAtTier, err := e.stickers.CountSalesAtTier(ctx, s.ID, s.PricingTier)
	if err != nil {
		return false, fmt.Errorf("counting sales at tier: %w", err)
	}
	if salesAtTier >= SalesOverrideThreshold {
		if newTier != s.PricingTier {
			if err := e.stickers.UpdateTierOnly(ctx, s.ID, newTier); err != nil {
				return false, fmt.Errorf("updating tier under sales override: %w", err)
			}
			telemetry.PricesChangedTotal.WithLabelValues("sales_override_tier_change").Inc()
		}
		return false, nil
	}

	newPrice := BasePrice(newTier, s.Size)
	floor := FloorPrice(productType(s.Size), s.FulfillmentProvider, e.shippingRates)
	if newPrice < floor {
		newPrice = floor
	}
	newPrice = RoundToPricePoint(newPrice)

	if math.Abs(newPrice-s.Price) < 0.01 && newTier == s.PricingTier {
		return false, nil
	}

	if s.MarketplaceListingID != nil && e.marketplace != nil {
		if err := e.marketplace.UpdatePrice(ctx, *s.MarketplaceListingID, newPrice); err != nil {
			return false, fmt.Errorf("updating marketplace listing price: %w", err)
		}
	}

	if err := e.stickers.UpdatePriceAndTier(ctx, s.ID, newPrice, newTier); err != nil {
		return false, fmt.Errorf("updating sticker price/tier: %w", err)
	}

	reason := "trend_age"
	if newTier != s.PricingTier {
		reason = fmt.Sprintf("tier_change:%s->%s", s.PricingTier, newTier)
	}
	if err := e.priceHistory.Create(ctx, model.PriceHistory{
		StickerID:   s.ID,
		OldPrice:    s.Price,
		NewPrice:    newPrice,
		PricingTier: newTier,
		Reason:      reason,
	}); err != nil {
		return false, fmt.Errorf("recording price history: %w", err)
	}
	telemetry.PricesChangedTotal.WithLabelValues(reason).Inc()

	if e.logger != nil {
		e.logger.Info("repriced sticker",
			"sticker_id", s.ID, "old_price", s.Price, "new_price", newPrice,
			"old_tier", s.PricingTier, "new_tier", newTier)
	}

	return true, nil
}
