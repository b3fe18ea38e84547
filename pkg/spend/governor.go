// Package spend implements daily/monthly AI cost aggregation over
// pipeline_runs and budget-gated admission, with per-calendar-month alert
// coalescing tracking warning and hard-stop thresholds separately.
package spend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stickertrendz/pipeline/internal/email"
	"github.com/stickertrendz/pipeline/internal/store"
)

// Governor aggregates AI spend and gates admission against configured caps.
type Governor struct {
	runs    *store.RunStore
	alerter *email.Alerter

	monthlyWarning float64
	monthlyHardStop float64
	dailyWarning   float64

	mu                 sync.Mutex
	warningAlertMonth  string // YYYY-MM of the last warning alert sent
	hardStopAlertMonth string // YYYY-MM of the last hard-stop alert sent
}

// NewGovernor builds a spend Governor. monthlyWarning/monthlyHardStop/
// dailyWarning come from configuration (defaults 120/150/8).
func NewGovernor(runs *store.RunStore, alerter *email.Alerter, monthlyWarning, monthlyHardStop, dailyWarning float64) *Governor {
	return &Governor{
		runs:            runs,
		alerter:         alerter,
		monthlyWarning:  monthlyWarning,
		monthlyHardStop: monthlyHardStop,
		dailyWarning:    dailyWarning,
	}
}

// DailySpend sums ai_cost_estimate_usd for runs started today (UTC).
func (g *Governor) DailySpend(ctx context.Context) (float64, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	sum, err := g.runs.SumAICostBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("computing daily spend: %w", err)
	}
	return sum, nil
}

// MonthlySpend sums ai_cost_estimate_usd for runs started in the given
// calendar month.
func (g *Governor) MonthlySpend(ctx context.Context, year int, month time.Month) (float64, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	sum, err := g.runs.SumAICostBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("computing monthly spend: %w", err)
	}
	return sum, nil
}

// BudgetStatus is the result of a budget admission check.
type BudgetStatus struct {
	CanProceed   bool
	MonthlySpend float64
	Warning      bool
	HardStop     bool
	Message      string
}

// CheckBudget evaluates monthly spend against the warning/hard-stop caps.
// can_proceed = monthly_spend < hard_stop (strict), so a month sitting
// exactly at the cap already blocks new AI-consuming work. Sends at most
// one warning email and one hard-stop email per calendar month.
func (g *Governor) CheckBudget(ctx context.Context) (BudgetStatus, error) {
	now := time.Now().UTC()
	monthly, err := g.MonthlySpend(ctx, now.Year(), now.Month())
	if err != nil {
		return BudgetStatus{}, err
	}

	hardStop := monthly >= g.monthlyHardStop
	warning := monthly >= g.monthlyWarning
	canProceed := monthly < g.monthlyHardStop
	currentMonth := now.Format("2006-01")

	var message string
	switch {
	case hardStop:
		message = fmt.Sprintf("HARD STOP: Monthly AI spend $%.2f exceeds cap $%.2f. All AI operations halted.", monthly, g.monthlyHardStop)
		g.mu.Lock()
		alreadySent := g.hardStopAlertMonth == currentMonth
		if !alreadySent {
			g.hardStopAlertMonth = currentMonth
		}
		g.mu.Unlock()
		if !alreadySent {
			g.alerter.SendBudgetWarning(ctx, monthly, g.monthlyHardStop)
		}
	case warning:
		message = fmt.Sprintf("WARNING: Monthly AI spend $%.2f approaching cap $%.2f.", monthly, g.monthlyHardStop)
		g.mu.Lock()
		alreadySent := g.warningAlertMonth == currentMonth
		if !alreadySent {
			g.warningAlertMonth = currentMonth
		}
		g.mu.Unlock()
		if !alreadySent {
			g.alerter.SendBudgetWarning(ctx, monthly, g.monthlyHardStop)
		}
	default:
		message = fmt.Sprintf("Monthly AI spend: $%.2f / $%.2f", monthly, g.monthlyHardStop)
	}

	return BudgetStatus{
		CanProceed:   canProceed,
		MonthlySpend: monthly,
		Warning:      warning,
		HardStop:     hardStop,
		Message:      message,
	}, nil
}

// DailyBudgetStatus is the result of a daily spend check.
type DailyBudgetStatus struct {
	DailySpend float64
	Warning    bool
	Message    string
}

// CheckDailyBudget evaluates today's spend against the daily warning
// threshold, sending a warning email every time it is crossed (the source
// does not coalesce daily alerts, unlike the monthly ones).
func (g *Governor) CheckDailyBudget(ctx context.Context) (DailyBudgetStatus, error) {
	daily, err := g.DailySpend(ctx)
	if err != nil {
		return DailyBudgetStatus{}, err
	}

	warning := daily >= g.dailyWarning
	var message string
	if warning {
		message = fmt.Sprintf("WARNING: Daily AI spend $%.2f exceeds threshold $%.2f.", daily, g.dailyWarning)
		g.alerter.SendDailySpendWarning(ctx, daily, g.dailyWarning)
	} else {
		message = fmt.Sprintf("Daily AI spend: $%.2f / $%.2f", daily, g.dailyWarning)
	}

	return DailyBudgetStatus{DailySpend: daily, Warning: warning, Message: message}, nil
}
