package resilience

import (
	"context"
	"math"
	"time"
)

// Policy configures a single Do call's retry/backoff behavior.
type Policy struct {
	MaxAttempts int           // default 3
	BackoffBase float64       // default 2.0
	BackoffMax  time.Duration // default 30s
	Service     string        // empty disables circuit-breaker integration
}

// DefaultPolicy is the spec default: 3 attempts, base 2, 30s ceiling.
func DefaultPolicy(service string) Policy {
	return Policy{MaxAttempts: 3, BackoffBase: 2.0, BackoffMax: 30 * time.Second, Service: service}
}

// Op is a unit of work that reports a typed Failure on error, never a bare error.
type Op func(ctx context.Context) (any, *Failure)

// Do executes op under the policy's retry/backoff rule, optionally gated by
// a circuit breaker when breakers is non-nil and Service is set. Wait before
// attempt k is min(base^k, max); only failures marked Retryable loop. The
// backoff sleep is cancellable: a cancelled ctx aborts immediately rather
// than completing the sleep.
func Do(ctx context.Context, p Policy, breakers *BreakerRegistry, op Op) (any, *Failure) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 2.0
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = 30 * time.Second
	}

	return doAttempts(ctx, p, breakers, op)
}

// callOnce runs a single attempt, routing it through the named service's
// breaker when one is configured so each failed call counts individually
// toward that breaker's consecutive-failure trip threshold.
func callOnce(ctx context.Context, p Policy, breakers *BreakerRegistry, op Op) (any, *Failure) {
	if breakers == nil || p.Service == "" {
		v, fail := op(ctx)
		return v, fail
	}

	result, err := breakers.Execute(p.Service, func() (any, error) {
		v, failErr := op(ctx)
		if failErr != nil {
			return nil, failErr
		}
		return v, nil
	})
	if err != nil {
		if f, ok := err.(*Failure); ok {
			return nil, f
		}
		return nil, NonRetry(KindProcessingError, err)
	}
	return result, nil
}

func doAttempts(ctx context.Context, p Policy, breakers *BreakerRegistry, op Op) (any, *Failure) {
	var last *Failure
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, NonRetry(KindTimeout, err)
		}

		v, fail := callOnce(ctx, p, breakers, op)
		if fail == nil {
			return v, nil
		}
		last = fail

		if !fail.Retryable {
			return nil, fail
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := time.Duration(math.Min(math.Pow(p.BackoffBase, float64(attempt)), p.BackoffMax.Seconds())) * time.Second
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, NonRetry(KindTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, RetryExhausted(last, p.MaxAttempts)
}
