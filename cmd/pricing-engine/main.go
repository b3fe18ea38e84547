// Command pricing-engine runs one pricing_engine workflow cycle: archive
// stale listings, then apply the per-sticker repricing decision across
// every published, non-archived sticker.
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
	"github.com/stickertrendz/pipeline/pkg/pricing"
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

	registry := telemetry.NewRegistry(orchestrator.WorkflowPricingEngine, cfg.PushgatewayURL, logger, telemetry.All()...)
	defer registry.Flush()

	stores := store.New(pool)
	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.AlertEmail, cfg.FromEmail)
	alerter := email.NewAlerter(emailClient, logger)
	rl := ratelimit.NewGovernor(rdb)

	deps := &orchestrator.Deps{
		Runs:      ledger.NewRunLedger(stores.Runs),
		Errors:    ledger.NewErrorLedger(stores.Errors, logger),
		RateLimit: rl,
		Spend:     spend.NewGovernor(stores.Runs, alerter, cfg.MonthlyWarningUSD, cfg.MonthlyHardStopUSD, cfg.DailyWarningUSD),
		Breakers:  resilience.NewBreakerRegistry(nil),
		Alerter:   alerter,
		Logger:    logger,
	}

	// The marketplace client and a live per-provider shipping-rate lookup
	// are external collaborators; left unconfigured here, the engine and
	// archiver still update local price/tier/archive state, they simply
	// skip the live listing call.
	var marketplace external.Marketplace
	var shippingRates pricing.ShippingRateLookup

	engine := pricing.NewEngine(stores.Stickers, stores.Trends, stores.PriceHistory, marketplace, shippingRates, logger)
	archiver := pricing.NewArchiver(stores.Stickers, stores.PriceHistory, marketplace, logger)

	body := orchestrator.NewPricingEngineBody(stores, engine, archiver, deps.Errors, rl)
	admission := orchestrator.PricingEngineAdmission(rl)

	status, err := orchestrator.Run(ctx, deps, orchestrator.WorkflowPricingEngine, admission, body)
	if err != nil {
		logger.Error("pricing_engine skeleton failed", "error", err)
		return 1
	}
	if status == model.RunFailed {
		return 1
	}
	return 0
}
