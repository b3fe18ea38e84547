// Package pricing implements the pricing state machine: tier lookup by
// trend age, floor-price calculation, price-point rounding, the
// sales-override rule, the per-sticker decision, and the archiver. See
// DESIGN.md for the tie-break decision at the just_dropped/trending
// boundary.
package pricing

import "github.com/stickertrendz/pipeline/internal/model"

// DefaultFeeRate and DefaultMinMargin are the marketplace-fee and target-
// margin defaults feeding the floor-price formula.
const (
	DefaultFeeRate   = 0.10
	DefaultMinMargin = 0.20
)

// SalesOverrideThreshold is the sales-at-current-tier count at or above which the
// listed price is frozen even as the tier advances.
const SalesOverrideThreshold = 10

// TierForAge returns the pricing tier for a trend aged d days. Boundaries:
// d<=3 -> just_dropped; 3<d<14 -> trending; 14<=d<30 -> cooling; d>=30 -> evergreen.
func TierForAge(d int) model.PricingTier {
	switch {
	case d <= 3:
		return model.TierJustDropped
	case d < 14:
		return model.TierTrending
	case d < 30:
		return model.TierCooling
	default:
		return model.TierEvergreen
	}
}

// TierPrice is the base listed price table by tier and size.
var TierPrice = map[model.PricingTier]map[model.SizeClass]float64{
	model.TierJustDropped: {model.SizeSingleSmall: 5.49, model.SizeSingleLarge: 6.49},
	model.TierTrending:    {model.SizeSingleSmall: 4.49, model.SizeSingleLarge: 5.49},
	model.TierCooling:     {model.SizeSingleSmall: 3.49, model.SizeSingleLarge: 4.49},
	model.TierEvergreen:   {model.SizeSingleSmall: 3.49, model.SizeSingleLarge: 4.49},
}

// BasePrice looks up the tier/size base price, falling back to the
// evergreen price point for an unrecognized tier.
func BasePrice(tier model.PricingTier, size model.SizeClass) float64 {
	byTier, ok := TierPrice[tier]
	if !ok {
		byTier = TierPrice[model.TierEvergreen]
	}
	price, ok := byTier[size]
	if !ok {
		price = byTier[model.SizeSingleSmall]
	}
	return price
}
