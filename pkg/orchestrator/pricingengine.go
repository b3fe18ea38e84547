package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/pricing"
	"github.com/stickertrendz/pipeline/pkg/ratelimit"
	"github.com/stickertrendz/pipeline/pkg/resilience"
)

const WorkflowPricingEngine = "pricing_engine"

// PricingEngineAdmission gates pricing_engine on the P2_PRICE_UPDATES
// marketplace-call priority tier, per the source's rate-limiter check
// immediately after lock acquisition.
func PricingEngineAdmission(rl *ratelimit.Governor) AdmissionCheck {
	return func(ctx context.Context) (Admission, error) {
		ok, err := rl.CanProceed(ctx, ratelimit.P2PriceUpdates)
		if err != nil {
			return Admission{}, err
		}
		if !ok {
			return Admission{Allowed: false, Reason: "rate_limit"}, nil
		}
		return Admission{Allowed: true}, nil
	}
}

// NewPricingEngineBody builds the pricing_engine workflow body: run the
// archiver to free listing slots, then apply the per-sticker repricing
// decision across every published, non-archived sticker.
func NewPricingEngineBody(stores *store.Stores, engine *pricing.Engine, archiver *pricing.Archiver, errors *ledger.ErrorLedger, rl *ratelimit.Governor) Body {
	return func(ctx context.Context, runID uuid.UUID) (ledger.Counts, map[string]any, error) {
		var counts ledger.Counts

		archived, err := archiver.Run(ctx)
		if err != nil {
			return counts, nil, fmt.Errorf("running archiver: %w", err)
		}
		counts.StickersArchived = archived

		stickers, err := stores.Stickers.ListPublishedNonArchived(ctx)
		if err != nil {
			return counts, nil, fmt.Errorf("listing published stickers: %w", err)
		}

		for _, s := range stickers {
			changed, err := engine.ProcessSticker(ctx, s)
			if err != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow:      WorkflowPricingEngine,
					Step:          "reprice",
					Kind:          resilience.KindProcessingError,
					Message:       err.Error(),
					Service:       "store",
					PipelineRunID: &runID,
					Context:       map[string]any{"sticker_id": s.ID.String()},
				})
				continue
			}
			if changed {
				counts.PricesUpdated++
				_, _ = rl.Increment(ctx, 1)
				counts.APICallsUsed++
			}
		}

		return counts, map[string]any{"stickers_processed": len(stickers)}, nil
	}
}
