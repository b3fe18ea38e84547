// Command sticker-generator runs one sticker_generator workflow cycle:
// generate, validate, and post-process artwork for discovered trends, up
// to the daily image cap, and insert a pending-moderation sticker per hit.
package main

import (
	"context"
	"os"

	"github.com/stickertrendz/pipeline/internal/config"
	"github.com/stickertrendz/pipeline/internal/email"
	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/platform"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/internal/telemetry"
	"github.com/stickertrendz/pipeline/pkg/external"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/orchestrator"
	"github.com/stickertrendz/pipeline/pkg/ratelimit"
	"github.com/stickertrendz/pipeline/pkg/resilience"
	"github.com/stickertrendz/pipeline/pkg/spend"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		println("loading config:", err.Error())
		return 1
	}

	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		logger.Error("running migrations", "error", err)
		return 1
	}

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting to postgres", "error", err)
		return 1
	}
	defer pool.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connecting to redis", "error", err)
		return 1
	}
	defer rdb.Close()

	registry := telemetry.NewRegistry(orchestrator.WorkflowStickerGenerator, cfg.PushgatewayURL, logger, telemetry.All()...)
	defer registry.Flush()

	stores := store.New(pool)
	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.AlertEmail, cfg.FromEmail)
	alerter := email.NewAlerter(emailClient, logger)

	deps := &orchestrator.Deps{
		Runs:      ledger.NewRunLedger(stores.Runs),
		Errors:    ledger.NewErrorLedger(stores.Errors, logger),
		RateLimit: ratelimit.NewGovernor(rdb),
		Spend:     spend.NewGovernor(stores.Runs, alerter, cfg.MonthlyWarningUSD, cfg.MonthlyHardStopUSD, cfg.DailyWarningUSD),
		Breakers:  resilience.NewBreakerRegistry(nil),
		Alerter:   alerter,
		Logger:    logger,
	}

	// Prompt generation, image generation, quality/post-processing, and
	// object storage are external collaborators; left unconfigured here,
	// the body simply produces zero stickers this cycle rather than
	// erroring, since it returns before touching any trend when one of
	// these collaborators is nil.
	var prompts external.PromptGenerator
	var imagegen external.ImageGen
	var processor external.ImageProcessor
	var objectStore external.ObjectStore

	body := orchestrator.NewStickerGeneratorBody(
		stores, prompts, imagegen, processor, objectStore, deps.Errors, deps.Breakers,
		cfg.MaxImagesPerDay, cfg.ImageSize, cfg.ImageCostPerImage,
	)
	admission := orchestrator.NewStickerGeneratorAdmission(deps.Spend)

	status, err := orchestrator.Run(ctx, deps, orchestrator.WorkflowStickerGenerator, admission, body)
	if err != nil {
		logger.Error("sticker_generator skeleton failed", "error", err)
		return 1
	}
	if status == model.RunFailed {
		return 1
	}
	return 0
}
