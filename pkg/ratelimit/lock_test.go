package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	g, _ := newTestGovernor(t)
	ctx := context.Background()

	lock, err := g.AcquireLock(ctx, "trend_monitor")
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "trend_monitor", lock.Workflow)
	assert.NotEmpty(t, lock.Token)

	t.Run("second holder is rejected while the lock is held", func(t *testing.T) {
		second, err := g.AcquireLock(ctx, "trend_monitor")
		require.NoError(t, err)
		assert.Nil(t, second)
	})

	t.Run("release by the true holder succeeds", func(t *testing.T) {
		ok := g.ReleaseLock(ctx, lock)
		assert.True(t, ok)
	})

	t.Run("lock is re-acquirable after release", func(t *testing.T) {
		third, err := g.AcquireLock(ctx, "trend_monitor")
		require.NoError(t, err)
		assert.NotNil(t, third)
	})
}

func TestReleaseLockWrongTokenDoesNotRelease(t *testing.T) {
	g, _ := newTestGovernor(t)
	ctx := context.Background()

	lock, err := g.AcquireLock(ctx, "pricing_engine")
	require.NoError(t, err)
	require.NotNil(t, lock)

	forged := &Lock{Workflow: "pricing_engine", Token: "not-the-real-token"}
	ok := g.ReleaseLock(ctx, forged)
	assert.False(t, ok)

	still, err := g.AcquireLock(ctx, "pricing_engine")
	require.NoError(t, err)
	assert.Nil(t, still, "lock should still be held since the forged release was rejected")
}

func TestReleaseNilLockIsNoop(t *testing.T) {
	g, _ := newTestGovernor(t)
	assert.False(t, g.ReleaseLock(context.Background(), nil))
}

func TestLockTTLsCoverAllWorkflows(t *testing.T) {
	for _, workflow := range []string{"trend_monitor", "sticker_generator", "pricing_engine", "analytics_sync"} {
		_, ok := LockTTLs[workflow]
		assert.True(t, ok, "missing lock TTL for %s", workflow)
	}
	assert.Equal(t, LockTTLs["trend_monitor"].Minutes(), float64(25))
	assert.Equal(t, LockTTLs["sticker_generator"].Minutes(), float64(30))
}
