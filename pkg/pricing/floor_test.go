package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFloorPrice(t *testing.T) {
	t.Run("applies fee and margin on top of raw costs", func(t *testing.T) {
		got := CalculateFloorPrice(1.50, 0.78, 0.15, DefaultFeeRate, DefaultMinMargin)
		want := (1.50 + 0.78 + 0.15) / (1 - DefaultFeeRate) / (1 - DefaultMinMargin)
		assert.InDelta(t, roundCents(want), got, 0.001)
	})

	t.Run("invalid fee rate falls back to default", func(t *testing.T) {
		withDefault := CalculateFloorPrice(1.50, 0.78, 0.15, DefaultFeeRate, DefaultMinMargin)
		withInvalid := CalculateFloorPrice(1.50, 0.78, 0.15, 1.0, DefaultMinMargin)
		assert.Equal(t, withDefault, withInvalid)
	})

	t.Run("invalid margin falls back to default", func(t *testing.T) {
		withDefault := CalculateFloorPrice(1.50, 0.78, 0.15, DefaultFeeRate, DefaultMinMargin)
		withInvalid := CalculateFloorPrice(1.50, 0.78, 0.15, DefaultFeeRate, 1.5)
		assert.Equal(t, withDefault, withInvalid)
	})
}

func TestFloorPrice(t *testing.T) {
	t.Run("self_usps falls back to fixed costs on lookup miss", func(t *testing.T) {
		got := FloorPrice("single_small", "self_usps", func(string, string) (*ShippingRate, bool) { return nil, false })
		raw := CalculateFloorPrice(PrintCost("single_small"), 0.78, 0.15, DefaultFeeRate, DefaultMinMargin)
		assert.Equal(t, RoundToPricePoint(raw), got)
	})

	t.Run("non-self-fulfilled provider falls back to zero shipping on lookup miss", func(t *testing.T) {
		got := FloorPrice("single_small", "printful", func(string, string) (*ShippingRate, bool) { return nil, false })
		raw := CalculateFloorPrice(PrintCost("single_small"), 0, 0, DefaultFeeRate, DefaultMinMargin)
		assert.Equal(t, RoundToPricePoint(raw), got)
	})

	t.Run("nil lookup behaves like a lookup miss", func(t *testing.T) {
		got := FloorPrice("single_small", "printful", nil)
		raw := CalculateFloorPrice(PrintCost("single_small"), 0, 0, DefaultFeeRate, DefaultMinMargin)
		assert.Equal(t, RoundToPricePoint(raw), got)
	})

	t.Run("lookup hit overrides the fallback costs", func(t *testing.T) {
		got := FloorPrice("single_small", "printful", func(string, string) (*ShippingRate, bool) {
			return &ShippingRate{ShippingCost: 2.00, PackagingCost: 0.50}, true
		})
		raw := CalculateFloorPrice(PrintCost("single_small"), 2.00, 0.50, DefaultFeeRate, DefaultMinMargin)
		assert.Equal(t, RoundToPricePoint(raw), got)
	})
}

func TestPrintCost(t *testing.T) {
	assert.Equal(t, 2.00, PrintCost("single_large"))
	assert.Equal(t, 1.50, PrintCost("single_small"))
	assert.Equal(t, 1.50, PrintCost("unknown"))
}
