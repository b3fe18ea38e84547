package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	t.Run("zero rates produce zero cost", func(t *testing.T) {
		assert.Equal(t, float64(0), EstimateCost(1000, 500, 3, 0, 0, 0))
	})

	t.Run("combines token and image costs", func(t *testing.T) {
		got := EstimateCost(1000, 200, 2, 0.00000015, 0.0000006, 0.003)
		want := 1000*0.00000015 + 200*0.0000006 + 2*0.003
		assert.InDelta(t, want, got, 1e-9)
	})
}

func TestRunLedgerElapsed(t *testing.T) {
	l := NewRunLedger(nil)
	runID := uuid.New()

	t.Run("unknown run returns zero", func(t *testing.T) {
		assert.Equal(t, 0, l.elapsed(uuid.New()))
	})

	l.mu.Lock()
	l.startTimes[runID] = time.Now().Add(-5 * time.Second)
	l.mu.Unlock()

	t.Run("known run reports elapsed seconds since start", func(t *testing.T) {
		elapsed := l.elapsed(runID)
		assert.GreaterOrEqual(t, elapsed, 5)
		assert.Less(t, elapsed, 10)
	})

	t.Run("elapsed is one-shot: the start time is consumed", func(t *testing.T) {
		assert.Equal(t, 0, l.elapsed(runID))
	})
}
