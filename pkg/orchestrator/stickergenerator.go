package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/external"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/resilience"
	"github.com/stickertrendz/pipeline/pkg/spend"
)

const WorkflowStickerGenerator = "sticker_generator"

// imagesPerTrend is the number of generation attempts per discovered
// trend; the first successfully validated image wins the slot.
const imagesPerTrend = 3

// NewStickerGeneratorAdmission gates sticker_generator on the same monthly
// AI budget check as trend_monitor — image generation is the other
// AI-metered call site.
func NewStickerGeneratorAdmission(sg *spend.Governor) AdmissionCheck {
	return NewTrendMonitorAdmission(sg)
}

// NewStickerGeneratorBody builds the sticker_generator workflow body: for
// each discovered trend, up to the daily image cap, run the
// prompt -> generate -> validate -> post-process chain and insert a
// pending-moderation Sticker on the first validated attempt.
func NewStickerGeneratorBody(
	stores *store.Stores,
	prompts external.PromptGenerator,
	imagegen external.ImageGen,
	processor external.ImageProcessor,
	objectStore external.ObjectStore,
	errors *ledger.ErrorLedger,
	breakers *resilience.BreakerRegistry,
	maxImagesPerDay int,
	imageSize int,
	costPerImage float64,
) Body {
	if maxImagesPerDay <= 0 {
		maxImagesPerDay = 50
	}

	return func(ctx context.Context, runID uuid.UUID) (ledger.Counts, map[string]any, error) {
		var counts ledger.Counts

		if prompts == nil || imagegen == nil || processor == nil || objectStore == nil {
			return counts, map[string]any{"images_attempted": 0}, nil
		}

		trends, err := stores.Trends.ListByStatus(ctx, model.TrendDiscovered, 1000)
		if err != nil {
			return counts, nil, err
		}

		imagesAttempted := 0
		for _, trend := range trends {
			if imagesAttempted >= maxImagesPerDay {
				break
			}

			created, attempted := generateForTrend(ctx, stores, trend, prompts, imagegen, processor, objectStore, errors, breakers, runID, imageSize, imagesPerTrend)
			imagesAttempted += attempted
			counts.StickersGenerated += created

			newStatus := model.TrendGenerationFailed
			if created > 0 {
				newStatus = model.TrendGenerated
			} else {
				counts.ErrorsCount++
			}
			if err := stores.Trends.SetStatus(ctx, trend.ID, newStatus); err != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowStickerGenerator, Step: "update_trend_status",
					Kind: resilience.KindStorageError, Message: err.Error(), Service: "store",
					PipelineRunID: &runID, Context: map[string]any{"trend_id": trend.ID.String()},
				})
			}
		}

		counts.AICostEstimateUSD = ledger.EstimateCost(0, 0, imagesAttempted, 0, 0, costPerImage)

		return counts, map[string]any{"images_attempted": imagesAttempted}, nil
	}
}

// generateForTrend runs up to maxAttempts prompt/generate/validate/post-
// process cycles for a single trend, inserting a Sticker on the first
// validated image. Returns the number of stickers created and the number
// of generation attempts actually made (for the daily cap).
func generateForTrend(
	ctx context.Context,
	stores *store.Stores,
	trend model.Trend,
	prompts external.PromptGenerator,
	imagegen external.ImageGen,
	processor external.ImageProcessor,
	objectStore external.ObjectStore,
	errors *ledger.ErrorLedger,
	breakers *resilience.BreakerRegistry,
	runID uuid.UUID,
	imageSize int,
	maxAttempts int,
) (created int, attempted int) {
	if prompts == nil || imagegen == nil || processor == nil || objectStore == nil {
		return 0, 0
	}

	for i := 0; i < maxAttempts; i++ {
		attempted++

		prompt, err := prompts.Generate(ctx, trend.Topic, trend.Keywords)
		if err != nil {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "prompt", Kind: resilience.KindProcessingError,
				Message: err.Error(), Service: "llm", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String()},
			})
			continue
		}

		imgResult, failure := resilience.Do(ctx, resilience.DefaultPolicy("imagegen"), breakers, func(ctx context.Context) (any, *resilience.Failure) {
			img, err := imagegen.Generate(ctx, prompt, imageSize)
			if err != nil {
				return nil, resilience.Retry(resilience.KindAPIError, err)
			}
			return img, nil
		})
		if failure != nil {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "generate", Kind: resilience.Kind(failure.Kind),
				Message: failure.Error(), Service: "imagegen", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String()},
			})
			continue
		}
		image := imgResult.([]byte)

		ok, failures, err := processor.Validate(ctx, image)
		if err != nil || !ok {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "validate", Kind: resilience.KindValidation,
				Message: "image failed quality validation", Service: "imagegen", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String(), "failures": failures},
			})
			continue
		}

		processed, err := processor.PostProcess(ctx, image)
		if err != nil {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "post_process", Kind: resilience.KindProcessingError,
				Message: err.Error(), Service: "imagegen", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String()},
			})
			continue
		}

		artworkURL, thumbURL, err := uploadArtwork(ctx, objectStore, trend.ID, processed)
		if err != nil {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "upload", Kind: resilience.KindStorageError,
				Message: err.Error(), Service: "coldblob", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String()},
			})
			continue
		}

		_, err = stores.Stickers.Create(ctx, model.Sticker{
			TrendID:             trend.ID,
			Title:               trend.Topic,
			ArtworkURL:          artworkURL,
			ThumbnailURL:        thumbURL,
			Size:                model.SizeSingleSmall,
			Price:               0,
			FloorPrice:          0,
			PricingTier:         model.TierJustDropped,
			ModerationStatus:    model.ModerationPending,
			FulfillmentProvider: "self_usps",
		})
		if err != nil {
			errors.LogError(ctx, ledger.LogErrorParams{
				Workflow: WorkflowStickerGenerator, Step: "insert_sticker", Kind: resilience.KindStorageError,
				Message: err.Error(), Service: "store", PipelineRunID: &runID,
				Context: map[string]any{"trend_id": trend.ID.String()},
			})
			continue
		}

		created++
		return created, attempted
	}

	return created, attempted
}

// uploadArtwork puts the print-ready and thumbnail renditions to object
// storage under a trend-scoped key and returns their public URLs.
func uploadArtwork(ctx context.Context, objectStore external.ObjectStore, trendID uuid.UUID, img external.ProcessedImage) (artworkURL, thumbURL string, err error) {
	if objectStore == nil {
		return "", "", fmt.Errorf("no object store configured")
	}

	artworkURL, err = objectStore.Put(ctx, fmt.Sprintf("stickers/%s/print.png", trendID), img.PrintReady)
	if err != nil {
		return "", "", fmt.Errorf("uploading print-ready artwork: %w", err)
	}

	thumbURL, err = objectStore.Put(ctx, fmt.Sprintf("stickers/%s/thumb.png", trendID), img.Thumbnail)
	if err != nil {
		return "", "", fmt.Errorf("uploading thumbnail artwork: %w", err)
	}

	return artworkURL, thumbURL, nil
}
