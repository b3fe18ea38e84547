package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundToPricePoint(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"zero falls back to 0.49", 0, 0.49},
		{"negative falls back to 0.49", -5, 0.49},
		{"exact .49 price point is unchanged", 4.49, 4.49},
		{"just above .49 rounds up to .99", 4.50, 4.99},
		{"just above .99 rounds up to 1.49 of the same floor", 4.995, 5.49},
		{"whole number rounds to .49 of the same floor", 5.00, 5.49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundToPricePoint(tt.price), 0.001)
		})
	}
}

func TestRoundToPricePointIdempotent(t *testing.T) {
	for _, price := range []float64{0.1, 3.2, 4.49, 4.99, 7.0, 12.345} {
		once := RoundToPricePoint(price)
		twice := RoundToPricePoint(once)
		assert.InDelta(t, once, twice, 0.001, "RoundToPricePoint should be idempotent for %v", price)
	}
}
