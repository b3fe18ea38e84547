package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stickertrendz/pipeline/pkg/ledger"
)

// Level is an alert severity, mirrored in the email subject prefix.
type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelInfo     Level = "info"
)

// Alerter wraps Client with the pipeline's alert templates. All sends are
// best-effort: a failure is logged and swallowed, never returned, so
// callers never need an error-handling path for alert delivery.
type Alerter struct {
	client *Client
	logger *slog.Logger
}

// NewAlerter builds an Alerter over a Resend client.
func NewAlerter(client *Client, logger *slog.Logger) *Alerter {
	return &Alerter{client: client, logger: logger}
}

// SendAlert delivers a leveled operational alert with the standard subject
// prefix and sanitized body.
func (a *Alerter) SendAlert(ctx context.Context, subject, body string, level Level) {
	fullSubject := fmt.Sprintf("[Sticker Trendz %s] %s", strings.ToUpper(string(level)), subject)
	safeBody := ledger.SanitizeString(body)
	if err := a.client.Send(ctx, fullSubject, safeBody); err != nil {
		a.logger.Warn("alert email failed (best-effort)", "subject", subject, "level", level, "error", err)
	}
}

// SendOAuthFailureAlert sends the critical invalid_grant alert — always
// critical, always halts the containing workflow, since a bad refresh
// token means every subsequent marketplace call will fail too.
func (a *Alerter) SendOAuthFailureAlert(ctx context.Context, shopID, errorDetail string) {
	subject := fmt.Sprintf("Marketplace OAuth FAILED - manual re-authorization required (shop %s)", shopID)
	body := fmt.Sprintf(
		"The marketplace OAuth token refresh for shop '%s' failed with an invalid_grant error. "+
			"All marketplace-dependent workflows are now halted.\n\nError: %s\n\n"+
			"Action required:\n1. Re-authorize via the marketplace OAuth flow\n"+
			"2. Update tokens in the store\n3. Manually trigger a test workflow to verify",
		shopID, ledger.SanitizeString(errorDetail),
	)
	a.SendAlert(ctx, subject, body, LevelCritical)
}

// SendBudgetWarning sends the monthly-spend warning/hard-stop alert.
func (a *Alerter) SendBudgetWarning(ctx context.Context, monthlySpend, cap float64) {
	subject := fmt.Sprintf("AI spend warning: $%.2f / $%.2f", monthlySpend, cap)
	pct := 0.0
	if cap > 0 {
		pct = monthlySpend / cap * 100
	}
	body := fmt.Sprintf(
		"Monthly AI spend has reached $%.2f, which is %.1f%% of the $%.2f cap.\n\n"+
			"If spend reaches $%.2f, all AI operations will be halted.",
		monthlySpend, pct, cap, cap,
	)
	level := LevelWarning
	if monthlySpend >= cap {
		level = LevelCritical
	}
	a.SendAlert(ctx, subject, body, level)
}

// SendDailySpendWarning sends the daily-spend threshold alert.
func (a *Alerter) SendDailySpendWarning(ctx context.Context, dailySpend, threshold float64) {
	subject := fmt.Sprintf("Daily AI spend warning: $%.2f", dailySpend)
	body := fmt.Sprintf(
		"Daily AI spend has reached $%.2f, exceeding the $%.2f warning threshold.\n\n"+
			"Please review pipeline runs to ensure costs are under control.",
		dailySpend, threshold,
	)
	a.SendAlert(ctx, subject, body, LevelWarning)
}

// SendModerationAlert notifies operators of a flagged sticker awaiting
// manual review.
func (a *Alerter) SendModerationAlert(ctx context.Context, stickerID, imageURL, topic string, score float64, categories map[string]float64) {
	subject := fmt.Sprintf("Flagged sticker needs review: %s", topic)
	var b strings.Builder
	fmt.Fprintf(&b, "A sticker has been flagged for manual review.\n\n")
	fmt.Fprintf(&b, "Sticker ID: %s\nTopic: %s\nImage URL: %s\nModeration Score: %.3f\n", stickerID, topic, imageURL, score)
	if len(categories) > 0 {
		b.WriteString("\nCategory Breakdown:\n")
		for cat, sc := range categories {
			fmt.Fprintf(&b, "  - %s: %.3f\n", cat, sc)
		}
	}
	b.WriteString("\nAction required: review and approve/reject in the operator dashboard.\n" +
		"Auto-reject will occur in 48 hours if no action is taken.")
	a.SendAlert(ctx, subject, b.String(), LevelWarning)
}

// DailySummary bundles the sections of the unconditional end-of-analytics-sync email.
type DailySummary struct {
	PipelineHealth map[string]any
	Orders         int
	GrossRevenue   float64
	COGS           float64
	MarketplaceFees float64
	EstimatedProfit float64
	AvgOrderValue   float64
	Repriced        int
	Archived        int
	BelowFloor      int
	ActiveListings  int
	MaxListings     int
	AISpendToday    float64
	AISpendMTD      float64
	APICalls        int
	ListingFees     float64
	Alerts          []string
}

// SendDailySummary sends the unconditional summary at the close of analytics_sync.
func (a *Alerter) SendDailySummary(ctx context.Context, s DailySummary) {
	var b strings.Builder
	b.WriteString("=== Pipeline Health ===\n")
	for k, v := range s.PipelineHealth {
		fmt.Fprintf(&b, "  %s: %v\n", k, v)
	}

	fmt.Fprintf(&b, "\n=== Revenue ===\n  Orders: %d\n  Gross Revenue: $%.2f\n  COGS: $%.2f\n"+
		"  Marketplace Fees: $%.2f\n  Est. Profit: $%.2f\n  Avg Order Value: $%.2f\n",
		s.Orders, s.GrossRevenue, s.COGS, s.MarketplaceFees, s.EstimatedProfit, s.AvgOrderValue)

	fmt.Fprintf(&b, "\n=== Pricing ===\n  Stickers Repriced: %d\n  Stickers Archived: %d\n"+
		"  Below Floor Price: %d\n  Active Listings: %d / %d\n",
		s.Repriced, s.Archived, s.BelowFloor, s.ActiveListings, s.MaxListings)

	fmt.Fprintf(&b, "\n=== Costs ===\n  AI Spend Today: $%.2f\n  AI Spend MTD: $%.2f\n"+
		"  Marketplace API Calls: %d\n  Listing Fees: $%.2f\n",
		s.AISpendToday, s.AISpendMTD, s.APICalls, s.ListingFees)

	b.WriteString("\n=== Alerts ===\n")
	if len(s.Alerts) == 0 {
		b.WriteString("  No alerts today.\n")
	} else {
		for _, al := range s.Alerts {
			fmt.Fprintf(&b, "  - %s\n", al)
		}
	}

	if err := a.client.Send(ctx, "[Sticker Trendz] Daily Summary", b.String()); err != nil {
		a.logger.Warn("daily summary email failed (best-effort)", "error", err)
	}
}
