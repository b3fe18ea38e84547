package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/email"
	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/external"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/ratelimit"
	"github.com/stickertrendz/pipeline/pkg/resilience"
	"github.com/stickertrendz/pipeline/pkg/retention"
)

const WorkflowAnalyticsSync = "analytics_sync"

// AnalyticsSyncAdmission gates order reads on the P0_ORDER_READS priority
// tier — the highest-priority call class, which the rate-limit governor
// never denies short of a full hard stop.
func AnalyticsSyncAdmission(rl *ratelimit.Governor) AdmissionCheck {
	return func(ctx context.Context) (Admission, error) {
		ok, err := rl.CanProceed(ctx, ratelimit.P0OrderReads)
		if err != nil {
			return Admission{}, err
		}
		if !ok {
			return Admission{Allowed: false, Reason: "rate_limit"}, nil
		}
		return Admission{Allowed: true}, nil
	}
}

// NewAnalyticsSyncBody builds the analytics_sync workflow body: ingest new
// marketplace receipts idempotently keyed on the natural receipt id,
// trigger fulfillment for orders still in status paid, run the retention
// purges, and send the unconditional daily summary.
func NewAnalyticsSyncBody(
	stores *store.Stores,
	marketplace external.Marketplace,
	fulfillment external.Fulfillment,
	purger *retention.Purger,
	errors *ledger.ErrorLedger,
	breakers *resilience.BreakerRegistry,
	rl *ratelimit.Governor,
	alerter *email.Alerter,
	maxActiveListings int,
) Body {
	return func(ctx context.Context, runID uuid.UUID) (ledger.Counts, map[string]any, error) {
		var counts ledger.Counts
		ordersSynced := 0
		ordersFulfilled := 0

		if ok, _ := rl.CanProceed(ctx, ratelimit.P0OrderReads); ok && marketplace != nil {
			receipts, failure := resilience.Do(ctx, resilience.DefaultPolicy("marketplace"), breakers, func(ctx context.Context) (any, *resilience.Failure) {
				rs, err := marketplace.ListReceipts(ctx, "")
				if err != nil {
					return nil, resilience.Retry(resilience.KindAPIError, err)
				}
				return rs, nil
			})
			if failure != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowAnalyticsSync, Step: "order_fetch",
					Kind: resilience.Kind(failure.Kind), Message: failure.Error(), Service: "marketplace",
					PipelineRunID: &runID,
				})
			} else {
				counts.APICallsUsed++
				_, _ = rl.Increment(ctx, 1)
				for _, rcpt := range receipts.([]external.Receipt) {
					if err := processReceipt(ctx, stores, rcpt); err != nil {
						counts.ErrorsCount++
						errors.LogError(ctx, ledger.LogErrorParams{
							Workflow: WorkflowAnalyticsSync, Step: "order_sync",
							Kind: resilience.KindProcessingError, Message: err.Error(), Service: "store",
							PipelineRunID: &runID, Context: map[string]any{"receipt_id": rcpt.ReceiptID},
						})
						continue
					}
					ordersSynced++
				}
			}
		}

		if fulfillment != nil {
			pending, err := stores.Orders.ListByStatus(ctx, model.OrderPaid)
			if err != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowAnalyticsSync, Step: "fulfillment_fetch",
					Kind: resilience.KindStorageError, Message: err.Error(), Service: "store",
					PipelineRunID: &runID,
				})
			}
			for _, o := range pending {
				sticker, err := stores.Stickers.Get(ctx, o.StickerID)
				if err != nil {
					counts.ErrorsCount++
					continue
				}
				_, failure := resilience.Do(ctx, resilience.DefaultPolicy("store"), breakers, func(ctx context.Context) (any, *resilience.Failure) {
					id, err := fulfillment.Submit(ctx, sticker.ArtworkURL, "", string(sticker.Size), o.Quantity)
					if err != nil {
						return nil, resilience.Retry(resilience.KindAPIError, err)
					}
					return id, nil
				})
				if failure != nil {
					counts.ErrorsCount++
					_ = stores.Orders.RecordFulfillmentAttempt(ctx, o.ID, failure.Error())
					errors.LogError(ctx, ledger.LogErrorParams{
						Workflow: WorkflowAnalyticsSync, Step: "fulfillment_submit",
						Kind: resilience.Kind(failure.Kind), Message: failure.Error(), Service: "store",
						PipelineRunID: &runID, Context: map[string]any{"order_id": o.ID.String()},
					})
					continue
				}
				_ = stores.Orders.SetStatus(ctx, o.ID, model.OrderSentToPrint)
				_ = stores.Orders.RecordFulfillmentAttempt(ctx, o.ID, "")
				ordersFulfilled++
			}
		}

		purgeResults := purger.RunAll(ctx)

		activeListings, _ := stores.Stickers.CountActiveListings(ctx)
		alerter.SendDailySummary(ctx, email.DailySummary{
			PipelineHealth: map[string]any{"analytics_sync": "completed"},
			Orders:         ordersSynced,
			ActiveListings: activeListings,
			MaxListings:    maxActiveListings,
			APICalls:       counts.APICallsUsed,
		})

		return counts, map[string]any{
			"orders_synced":           ordersSynced,
			"orders_fulfilled":        ordersFulfilled,
			"pii_purged":              purgeResults.PIIPurged,
			"error_logs_purged":       purgeResults.ErrorLogsPurged,
			"pipeline_runs_purged":    purgeResults.PipelineRunsPurged,
			"price_history_archived": purgeResults.PriceHistoryArchived,
		}, nil
	}
}

// processReceipt creates an Order row for a marketplace receipt not yet
// synced, keyed idempotently on the receipt's natural id.
func processReceipt(ctx context.Context, stores *store.Stores, rcpt external.Receipt) error {
	existing, err := stores.Orders.GetByReceiptID(ctx, rcpt.ReceiptID)
	if err != nil {
		return fmt.Errorf("checking existing order: %w", err)
	}
	if existing != nil {
		return nil
	}

	sticker, err := stores.Stickers.GetByListingID(ctx, rcpt.ListingID)
	if err != nil {
		return fmt.Errorf("finding sticker for listing: %w", err)
	}
	if sticker == nil {
		return fmt.Errorf("no sticker found for marketplace listing %q", rcpt.ListingID)
	}

	_, err = stores.Orders.Create(ctx, model.Order{
		StickerID:            sticker.ID,
		MarketplaceReceiptID: rcpt.ReceiptID,
		Status:               model.OrderPaid,
		Quantity:             rcpt.Quantity,
		UnitPrice:            rcpt.UnitPrice,
		PricingTierAtSale:    sticker.PricingTier,
	})
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	if err := stores.Stickers.RecordSale(ctx, sticker.ID, rcpt.Quantity); err != nil {
		return fmt.Errorf("recording sticker sale: %w", err)
	}
	return nil
}
