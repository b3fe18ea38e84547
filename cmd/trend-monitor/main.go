// Command trend-monitor runs one trend_monitor workflow cycle: fetch
// candidates from every configured trend source, deduplicate, reconcile
// against the store, score the survivors, and insert the result.
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
	"github.com/stickertrendz/pipeline/pkg/dedup"
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

	registry := telemetry.NewRegistry(orchestrator.WorkflowTrendMonitor, cfg.PushgatewayURL, logger, telemetry.All()...)
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

	// Concrete trend-discovery feeds, the LLM scorer, and the marketplace
	// client are external collaborators: wiring a live vendor integration
	// is left to deployment configuration rather than this module, so an
	// unconfigured deployment simply skips scoring and discovers nothing
	// this cycle.
	var sources []external.TrendSource
	var llm external.LLM

	reconciler := dedup.NewReconciler(stores.Trends)

	body := orchestrator.NewTrendMonitorBody(
		stores, sources, llm, reconciler, deps.Errors, deps.Breakers,
		cfg.MaxTrendsPerCycle, cfg.NewTrendsOutputFile,
	)
	admission := orchestrator.NewTrendMonitorAdmission(deps.Spend)

	status, err := orchestrator.Run(ctx, deps, orchestrator.WorkflowTrendMonitor, admission, body)
	if err != nil {
		logger.Error("trend_monitor skeleton failed", "error", err)
		return 1
	}
	if status == model.RunFailed {
		return 1
	}
	return 0
}
