package pricing

import "math"

// ShippingRate is a (product_type, fulfillment_provider)-keyed cost lookup
// entry feeding the floor-price formula.
type ShippingRate struct {
	ShippingCost  float64
	PackagingCost float64
}

// selfUSPSFallback is the fixed fallback cost applied when a shipping-rates
// lookup fails for self-fulfilled shipping.
var selfUSPSFallback = map[string]ShippingRate{
	"single_small": {ShippingCost: 0.78, PackagingCost: 0.15},
	"single_large": {ShippingCost: 0.78, PackagingCost: 0.20},
}

// PrintCost returns the base print cost for a product type.
func PrintCost(productType string) float64 {
	if productType == "single_large" {
		return 2.00
	}
	return 1.50
}

// ShippingRateLookup resolves shipping/packaging costs for a
// (product_type, fulfillment_provider) pair. A nil return means "not
// found"; the caller falls back per fulfillment_provider.
type ShippingRateLookup func(productType, fulfillmentProvider string) (*ShippingRate, bool)

// FloorPrice computes the floor price for a product type and fulfillment
// provider, rounded to a valid .49/.99 price point. On lookup failure,
// fixed fallback costs apply only for self-fulfilled shipping; other
// providers fall back to zero shipping/packaging cost.
func FloorPrice(productType, fulfillmentProvider string, lookup ShippingRateLookup) float64 {
	printCost := PrintCost(productType)

	var shippingCost, packagingCost float64
	var rate *ShippingRate
	ok := false
	if lookup != nil {
		rate, ok = lookup(productType, fulfillmentProvider)
	}
	if ok {
		shippingCost = rate.ShippingCost
		packagingCost = rate.PackagingCost
	} else if fulfillmentProvider == "self_usps" {
		fallback := selfUSPSFallback[productType]
		shippingCost = fallback.ShippingCost
		packagingCost = fallback.PackagingCost
	}

	raw := CalculateFloorPrice(printCost, shippingCost, packagingCost, DefaultFeeRate, DefaultMinMargin)
	return RoundToPricePoint(raw)
}

// CalculateFloorPrice applies the floor formula:
// (print + shipping + packaging) / (1 - fee_rate) / (1 - min_margin).
// Invalid rates (>= 1.0) fall back to the package defaults.
func CalculateFloorPrice(printCost, shippingCost, packagingCost, feeRate, minMargin float64) float64 {
	if feeRate >= 1.0 || minMargin >= 1.0 {
		feeRate = DefaultFeeRate
		minMargin = DefaultMinMargin
	}
	total := printCost + shippingCost + packagingCost
	floor := total / (1 - feeRate) / (1 - minMargin)
	return math.Round(floor*100) / 100
}
