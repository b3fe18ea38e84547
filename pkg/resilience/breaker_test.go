package resilience

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerRegistryUsesDefaultThresholdWhenUnlisted(t *testing.T) {
	r := NewBreakerRegistry(map[string]uint32{})
	cb := r.get("some_unlisted_service")
	require.NotNil(t, cb)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreakerRegistryTripsAfterConsecutiveFailures(t *testing.T) {
	r := NewBreakerRegistry(map[string]uint32{"marketplace": 3})
	failing := func() (any, error) { return nil, errors.New("boom") }

	for i := 0; i < 3; i++ {
		_, err := r.Execute("marketplace", failing)
		assert.Error(t, err)
	}

	_, err := r.Execute("marketplace", func() (any, error) {
		t.Fatal("op should not run once the breaker is open")
		return nil, nil
	})
	require.Error(t, err)
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindCircuitOpen, fail.Kind)
}

func TestBreakerRegistrySuccessResetsFailureCount(t *testing.T) {
	r := NewBreakerRegistry(map[string]uint32{"imagegen": 2})
	failing := func() (any, error) { return nil, errors.New("transient") }
	succeeding := func() (any, error) { return "ok", nil }

	_, err := r.Execute("imagegen", failing)
	assert.Error(t, err)

	_, err = r.Execute("imagegen", succeeding)
	assert.NoError(t, err)

	_, err = r.Execute("imagegen", failing)
	assert.Error(t, err)

	cb := r.get("imagegen")
	assert.Equal(t, gobreaker.StateClosed, cb.State(), "a single failure after a reset should not trip a threshold-2 breaker")
}

func TestBreakerRegistryIsolatesServices(t *testing.T) {
	r := NewBreakerRegistry(map[string]uint32{"store": 1, "reddit": 5})
	_, err := r.Execute("store", func() (any, error) { return nil, errors.New("db down") })
	assert.Error(t, err)

	_, err = r.Execute("store", func() (any, error) {
		t.Fatal("store breaker should already be open")
		return nil, nil
	})
	require.Error(t, err)

	_, err = r.Execute("reddit", func() (any, error) { return "fine", nil })
	assert.NoError(t, err, "reddit's breaker is independent of store's and should still be closed")
}

func TestBreakerRegistryResetAll(t *testing.T) {
	r := NewBreakerRegistry(map[string]uint32{"llm": 1})
	_, err := r.Execute("llm", func() (any, error) { return nil, errors.New("down") })
	assert.Error(t, err)

	r.ResetAll()

	_, err = r.Execute("llm", func() (any, error) { return "ok", nil })
	assert.NoError(t, err, "after ResetAll a fresh breaker should be closed again")
}

func TestDefaultThresholdsCoverKnownServices(t *testing.T) {
	for _, svc := range []string{"reddit", "llm", "search", "marketplace", "store", "imagegen", "coldblob"} {
		_, ok := DefaultThresholds[svc]
		assert.True(t, ok, "missing default threshold for %s", svc)
	}
}
