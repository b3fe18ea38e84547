package resilience

import (
	"sync"

	"github.com/sony/gobreaker"
)

// DefaultThresholds maps each external service name to its consecutive-
// failure trip threshold: content-discovery services tolerate more noise
// than paid/transactional ones.
var DefaultThresholds = map[string]uint32{
	"reddit":      5,
	"llm":         5,
	"search":      5,
	"marketplace": 3,
	"store":       3,
	"imagegen":    3,
	"coldblob":    3,
}

const defaultThreshold = 5

// BreakerRegistry holds one circuit breaker per service, process-local and
// reset on process restart. Each orchestrator run instantiates a fresh
// registry; state is never shared or persisted across runs.
type BreakerRegistry struct {
	thresholds map[string]uint32
	mu         sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry builds a registry. A nil thresholds map uses DefaultThresholds.
func NewBreakerRegistry(thresholds map[string]uint32) *BreakerRegistry {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	return &BreakerRegistry{
		thresholds: thresholds,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (r *BreakerRegistry) get(service string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[service]; ok {
		return cb
	}

	threshold := r.thresholds[service]
	if threshold == 0 {
		threshold = defaultThreshold
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: service,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	r.breakers[service] = cb
	return cb
}

// Execute runs fn through the named service's breaker. A success closes the
// breaker (zeroes its consecutive-failure counter); any error, including one
// surfaced as a non-retryable Failure, counts as a failure toward the trip
// threshold.
func (r *BreakerRegistry) Execute(service string, fn func() (any, error)) (any, error) {
	cb := r.get(service)
	if cb.State() == gobreaker.StateOpen {
		return nil, CircuitOpenFailure(service)
	}
	return cb.Execute(fn)
}

// ResetAll clears every breaker, used at the start of a fresh run in
// long-lived test harnesses (a real process simply constructs a new registry).
func (r *BreakerRegistry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = make(map[string]*gobreaker.CircuitBreaker)
}
