package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockTTLs gives the per-workflow lock duration: trend_monitor runs shorter
// than the others since discovery cycles are tighter.
var LockTTLs = map[string]time.Duration{
	"trend_monitor":     25 * time.Minute,
	"sticker_generator": 30 * time.Minute,
	"pricing_engine":    30 * time.Minute,
	"analytics_sync":    30 * time.Minute,
}

const defaultLockTTL = 30 * time.Minute

// releaseScript deletes the lock key only if its value still matches the
// caller's token, so a holder never deletes another process's lock even
// after its own has expired and been reacquired elsewhere.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// Lock is a held distributed lock, returned by AcquireLock. The holder must
// pass it back to ReleaseLock to release.
type Lock struct {
	Workflow string
	Token    string
}

func lockKey(workflow string) string { return "lock:" + workflow }

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// AcquireLock attempts to take the named workflow's lock with a random
// owner token. Returns (nil, nil) if another holder already has the lock,
// and also (nil, nil) on a Redis-unreachable error — callers treat "could
// not confirm the lock" the same as "lock held" rather than proceeding
// unprotected.
func (g *Governor) AcquireLock(ctx context.Context, workflow string, ttl ...time.Duration) (*Lock, error) {
	lockTTL := defaultLockTTL
	if len(ttl) > 0 {
		lockTTL = ttl[0]
	} else if t, ok := LockTTLs[workflow]; ok {
		lockTTL = t
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating lock token: %w", err)
	}

	ok, err := g.redis.SetNX(ctx, lockKey(workflow), token, lockTTL).Result()
	if err != nil {
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &Lock{Workflow: workflow, Token: token}, nil
}

// ReleaseLock releases a previously acquired lock if and only if it is
// still the current holder. Returns false (no error surfaced) on any
// store failure or ownership mismatch.
func (g *Governor) ReleaseLock(ctx context.Context, l *Lock) bool {
	if l == nil {
		return false
	}
	res, err := releaseScript.Run(ctx, g.redis, []string{lockKey(l.Workflow)}, l.Token).Int64()
	if err != nil {
		return false
	}
	return res == 1
}
