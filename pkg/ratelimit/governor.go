// Package ratelimit implements the daily marketplace-API-call counter with
// priority-aware admission, plus distributed per-workflow locks. The counter
// uses the Redis INCR+EXPIRE idiom; the locks use SET NX with a delete that
// checks the owner token.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Priority is an admission class for outbound marketplace call classes.
type Priority int

const (
	P0OrderReads    Priority = 0
	P1NewListings   Priority = 1
	P2PriceUpdates  Priority = 2
	P3Analytics     Priority = 3
)

const (
	thresholdNormal   = 7000
	thresholdWarning  = 8500
	thresholdCritical = 9500

	counterTTL = 48 * time.Hour
)

// UsageLevel is a human-readable summary of the current admission zone.
type UsageLevel string

const (
	LevelNormal   UsageLevel = "normal"
	LevelWarning  UsageLevel = "warning"
	LevelCritical UsageLevel = "critical"
	LevelHardStop UsageLevel = "hard_stop"
)

// Governor enforces the daily API call budget across priority tiers.
type Governor struct {
	redis *redis.Client
}

// NewGovernor builds a Governor over the given Redis client.
func NewGovernor(rdb *redis.Client) *Governor {
	return &Governor{redis: rdb}
}

func dailyKey(t time.Time) string {
	return fmt.Sprintf("api_calls:%s", t.UTC().Format("2006-01-02"))
}

// Increment atomically adds n to today's counter, setting a 48h TTL on the
// key's first increment of the day. Returns the new total.
func (g *Governor) Increment(ctx context.Context, n int64) (int64, error) {
	key := dailyKey(time.Now())

	pipe := g.redis.TxPipeline()
	incr := pipe.IncrBy(ctx, key, n)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter increment failed: %w", err)
	}

	if ttl.Val() < 0 {
		if err := g.redis.Expire(ctx, key, counterTTL).Err(); err != nil {
			return 0, fmt.Errorf("rate limiter increment failed: %w", err)
		}
	}

	return incr.Val(), nil
}

// DailyUsage returns today's counter value, 0 if absent.
func (g *Governor) DailyUsage(ctx context.Context) (int64, error) {
	val, err := g.redis.Get(ctx, dailyKey(time.Now())).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading daily usage: %w", err)
	}
	return val, nil
}

// CanProceed checks priority-aware admission against today's usage. On
// store-unreachable failure it fails closed: treat as blocked and let the
// caller log the error.
func (g *Governor) CanProceed(ctx context.Context, priority Priority) (bool, error) {
	usage, err := g.DailyUsage(ctx)
	if err != nil {
		return false, err
	}
	return checkThreshold(usage, priority), nil
}

// checkThreshold is the pure boundary logic, exactly the boundaries quoted
// in the admission table: strict > against each threshold (7000 is normal).
func checkThreshold(usage int64, priority Priority) bool {
	switch {
	case usage > thresholdCritical:
		return false
	case usage > thresholdWarning:
		return priority <= P1NewListings
	case usage > thresholdNormal:
		return priority <= P2PriceUpdates
	default:
		return true
	}
}

// UsageLevel returns the current admission zone for today's usage.
func (g *Governor) UsageLevel(ctx context.Context) (UsageLevel, error) {
	usage, err := g.DailyUsage(ctx)
	if err != nil {
		return "", err
	}
	return usageLevel(usage), nil
}

func usageLevel(usage int64) UsageLevel {
	switch {
	case usage > thresholdCritical:
		return LevelHardStop
	case usage > thresholdWarning:
		return LevelCritical
	case usage > thresholdNormal:
		return LevelWarning
	default:
		return LevelNormal
	}
}
