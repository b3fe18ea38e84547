package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	v, fail := Do(context.Background(), DefaultPolicy(""), nil, func(ctx context.Context) (any, *Failure) {
		calls++
		return "ok", nil
	})
	require.Nil(t, fail)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableFailures(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, BackoffBase: 0.001, BackoffMax: time.Millisecond}
	v, fail := Do(context.Background(), policy, nil, func(ctx context.Context) (any, *Failure) {
		calls++
		if calls < 3 {
			return nil, Retry(KindTimeout, errors.New("transient"))
		}
		return "recovered", nil
	})
	require.Nil(t, fail)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 3, calls)
}

func TestDoStopsImmediatelyOnNonRetryable(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 5, BackoffBase: 0.001, BackoffMax: time.Millisecond}
	_, fail := Do(context.Background(), policy, nil, func(ctx context.Context) (any, *Failure) {
		calls++
		return nil, NonRetry(KindValidation, errors.New("bad input"))
	})
	require.NotNil(t, fail)
	assert.Equal(t, KindValidation, fail.Kind)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsRetryExhaustedAfterMaxAttempts(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, BackoffBase: 0.001, BackoffMax: time.Millisecond}
	_, fail := Do(context.Background(), policy, nil, func(ctx context.Context) (any, *Failure) {
		calls++
		return nil, Retry(KindAPIError, errors.New("still failing"))
	})
	require.NotNil(t, fail)
	assert.Equal(t, KindRetryExhausted, fail.Kind)
	assert.Equal(t, 3, calls)
}

func TestDoAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, fail := Do(ctx, DefaultPolicy(""), nil, func(ctx context.Context) (any, *Failure) {
		t.Fatal("op should not run once context is cancelled before the first check")
		return nil, nil
	})
	require.NotNil(t, fail)
	assert.Equal(t, KindTimeout, fail.Kind)
}

func TestDoZeroValuePolicyFallsBackToDefaults(t *testing.T) {
	calls := 0
	_, fail := Do(context.Background(), Policy{}, nil, func(ctx context.Context) (any, *Failure) {
		calls++
		return nil, NonRetry(KindAuth, errors.New("denied"))
	})
	require.NotNil(t, fail)
	assert.Equal(t, 1, calls)
}

func TestDoIntegratesWithCircuitBreaker(t *testing.T) {
	registry := NewBreakerRegistry(map[string]uint32{"llm": 2})
	policy := Policy{MaxAttempts: 1, BackoffBase: 0.001, BackoffMax: time.Millisecond, Service: "llm"}

	for i := 0; i < 2; i++ {
		_, fail := Do(context.Background(), policy, registry, func(ctx context.Context) (any, *Failure) {
			return nil, NonRetry(KindAPIError, errors.New("upstream down"))
		})
		require.NotNil(t, fail)
		assert.Equal(t, KindAPIError, fail.Kind)
	}

	_, fail := Do(context.Background(), policy, registry, func(ctx context.Context) (any, *Failure) {
		t.Fatal("op should not run once the breaker has tripped")
		return nil, nil
	})
	require.NotNil(t, fail)
	assert.Equal(t, KindCircuitOpen, fail.Kind)
}

func TestDoCountsEachAttemptAgainstTheBreakerWithinOneCall(t *testing.T) {
	registry := NewBreakerRegistry(map[string]uint32{"marketplace": 2})
	policy := Policy{MaxAttempts: 5, BackoffBase: 0.001, BackoffMax: time.Millisecond, Service: "marketplace"}

	calls := 0
	_, fail := Do(context.Background(), policy, registry, func(ctx context.Context) (any, *Failure) {
		calls++
		return nil, Retry(KindAPIError, errors.New("still down"))
	})
	require.NotNil(t, fail)

	// Threshold 2 trips after the 2nd failed attempt, so the 3rd onward
	// attempt sees an open breaker and op is never called again, well
	// short of MaxAttempts.
	assert.Equal(t, 2, calls)
	assert.Equal(t, KindCircuitOpen, fail.Kind)
}
