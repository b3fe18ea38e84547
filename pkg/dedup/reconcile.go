package dedup

import (
	"context"
	"fmt"

	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/internal/telemetry"
)

// Reconciler checks canonical dedup output against the Trend table,
// unioning sources onto existing rows instead of inserting duplicates.
type Reconciler struct {
	trends *store.TrendStore
}

// NewReconciler builds a Reconciler over the trend store.
func NewReconciler(trends *store.TrendStore) *Reconciler {
	return &Reconciler{trends: trends}
}

// ReconcileWithStore looks up each canonical entry by normalized_topic. If
// a matching row exists, its sources are unioned in place and the entry is
// dropped from the "truly new" output; otherwise it is kept.
func (r *Reconciler) ReconcileWithStore(ctx context.Context, canonical []Canonical) ([]Canonical, error) {
	var trulyNew []Canonical

	for _, c := range canonical {
		existing, err := r.trends.GetByNormalizedTopic(ctx, c.NormalizedTopic)
		if err != nil {
			return nil, fmt.Errorf("checking existing trend %q: %w", c.NormalizedTopic, err)
		}

		if existing != nil {
			if err := r.trends.UnionSources(ctx, existing.ID, c.Sources); err != nil {
				return nil, fmt.Errorf("unioning sources for trend %q: %w", c.NormalizedTopic, err)
			}
			telemetry.TrendsDedupedTotal.Inc()
			continue
		}

		trulyNew = append(trulyNew, c)
	}

	return trulyNew, nil
}
