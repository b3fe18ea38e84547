// Command analytics-sync runs one analytics_sync workflow cycle: ingest
// marketplace receipts idempotently, trigger fulfillment for paid orders,
// run the four data-retention sweeps, and send the unconditional daily
// summary email.
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
	"github.com/stickertrendz/pipeline/pkg/retention"
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

	registry := telemetry.NewRegistry(orchestrator.WorkflowAnalyticsSync, cfg.PushgatewayURL, logger, telemetry.All()...)
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

	// The marketplace and fulfillment clients are external collaborators;
	// left unconfigured here, order ingestion and fulfillment submission
	// are simply skipped this cycle, while the retention sweeps and the
	// daily summary still run unconditionally.
	var marketplace external.Marketplace
	var fulfillment external.Fulfillment
	var objectStore external.ObjectStore

	purger := retention.NewPurger(stores.Orders, stores.Errors, stores.Runs, stores.PriceHistory, objectStore, logger)

	body := orchestrator.NewAnalyticsSyncBody(stores, marketplace, fulfillment, purger, deps.Errors, deps.Breakers, rl, alerter, cfg.MaxActiveListings)
	admission := orchestrator.AnalyticsSyncAdmission(rl)

	status, err := orchestrator.Run(ctx, deps, orchestrator.WorkflowAnalyticsSync, admission, body)
	if err != nil {
		logger.Error("analytics_sync skeleton failed", "error", err)
		return 1
	}
	if status == model.RunFailed {
		return 1
	}
	return 0
}
