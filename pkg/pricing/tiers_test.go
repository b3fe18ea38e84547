package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stickertrendz/pipeline/internal/model"
)

func TestTierForAge(t *testing.T) {
	tests := []struct {
		name string
		age  int
		want model.PricingTier
	}{
		{"day 0 is just_dropped", 0, model.TierJustDropped},
		{"day 3 is still just_dropped", 3, model.TierJustDropped},
		{"day 4 crosses into trending", 4, model.TierTrending},
		{"day 13 is still trending", 13, model.TierTrending},
		{"day 14 crosses into cooling", 14, model.TierCooling},
		{"day 29 is still cooling", 29, model.TierCooling},
		{"day 30 crosses into evergreen", 30, model.TierEvergreen},
		{"day 365 is evergreen", 365, model.TierEvergreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierForAge(tt.age))
		})
	}
}

func TestBasePrice(t *testing.T) {
	assert.Equal(t, 5.49, BasePrice(model.TierJustDropped, model.SizeSingleSmall))
	assert.Equal(t, 6.49, BasePrice(model.TierJustDropped, model.SizeSingleLarge))
	assert.Equal(t, 3.49, BasePrice(model.TierEvergreen, model.SizeSingleSmall))

	t.Run("unrecognized tier falls back to evergreen", func(t *testing.T) {
		assert.Equal(t, BasePrice(model.TierEvergreen, model.SizeSingleSmall), BasePrice(model.PricingTier("bogus"), model.SizeSingleSmall))
	})
}
