package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureErrorFormatting(t *testing.T) {
	t.Run("wraps the underlying error", func(t *testing.T) {
		f := Retry(KindTimeout, errors.New("deadline exceeded"))
		assert.Equal(t, "timeout: deadline exceeded", f.Error())
	})

	t.Run("falls back to the kind when there is no underlying error", func(t *testing.T) {
		f := &Failure{Kind: KindValidation}
		assert.Equal(t, "validation", f.Error())
	})
}

func TestFailureUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	f := NonRetry(KindStorageError, underlying)
	assert.ErrorIs(t, f, underlying)
}

func TestRetryAndNonRetryFlags(t *testing.T) {
	assert.True(t, Retry(KindAPIError, nil).Retryable)
	assert.False(t, NonRetry(KindInvalidGrant, nil).Retryable)
}

func TestRetryExhaustedWrapsLastFailure(t *testing.T) {
	last := NonRetry(KindAPIError, errors.New("upstream 500"))
	f := RetryExhausted(last, 3)
	assert.Equal(t, KindRetryExhausted, f.Kind)
	assert.False(t, f.Retryable)
	assert.ErrorIs(t, f, last)
}

func TestCircuitOpenFailureNamesService(t *testing.T) {
	f := CircuitOpenFailure("marketplace")
	assert.Equal(t, KindCircuitOpen, f.Kind)
	assert.Contains(t, f.Error(), "marketplace")
}
