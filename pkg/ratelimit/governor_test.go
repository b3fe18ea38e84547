package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGovernor(t *testing.T) (*Governor, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewGovernor(rdb), mr
}

func TestCheckThreshold(t *testing.T) {
	tests := []struct {
		name     string
		usage    int64
		priority Priority
		want     bool
	}{
		{"at 7000 exactly, everything proceeds", 7000, P3Analytics, true},
		{"at 7001, P3 analytics blocked", 7001, P3Analytics, false},
		{"at 7001, P2 price updates still proceed", 7001, P2PriceUpdates, true},
		{"at 8500 exactly, P2 still proceeds", 8500, P2PriceUpdates, true},
		{"at 8501, P2 price updates blocked", 8501, P2PriceUpdates, false},
		{"at 8501, P1 new listings still proceed", 8501, P1NewListings, true},
		{"at 9500 exactly, P1 still proceeds", 9500, P1NewListings, true},
		{"at 9501, everything blocked", 9501, P0OrderReads, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkThreshold(tt.usage, tt.priority))
		})
	}
}

func TestUsageLevel(t *testing.T) {
	assert.Equal(t, LevelNormal, usageLevel(7000))
	assert.Equal(t, LevelWarning, usageLevel(7001))
	assert.Equal(t, LevelWarning, usageLevel(8500))
	assert.Equal(t, LevelCritical, usageLevel(8501))
	assert.Equal(t, LevelCritical, usageLevel(9500))
	assert.Equal(t, LevelHardStop, usageLevel(9501))
}

func TestGovernorIncrementAndDailyUsage(t *testing.T) {
	g, _ := newTestGovernor(t)
	ctx := context.Background()

	total, err := g.Increment(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	total, err = g.Increment(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	usage, err := g.DailyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), usage)
}

func TestGovernorDailyUsageAbsentIsZero(t *testing.T) {
	g, _ := newTestGovernor(t)
	usage, err := g.DailyUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage)
}

func TestGovernorCanProceed(t *testing.T) {
	g, _ := newTestGovernor(t)
	ctx := context.Background()

	ok, err := g.CanProceed(ctx, P3Analytics)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = g.Increment(ctx, 7501)
	require.NoError(t, err)

	ok, err = g.CanProceed(ctx, P3Analytics)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.CanProceed(ctx, P1NewListings)
	require.NoError(t, err)
	assert.True(t, ok)
}
