// Package retention implements the four data-retention sweeps run by the
// analytics_sync workflow: 90-day customer PII nulling, 90-day error_log
// purge, 180-day pipeline_runs purge, and 365-day price_history cold
// archival to object storage.
package retention

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/external"
)

const (
	PIIRetentionDays          = 90
	ErrorLogRetentionDays     = 90
	PipelineRunsRetentionDays = 180
	PriceHistoryRetentionDays = 365
)

// Purger runs the four retention sweeps against the relational store,
// archiving price_history to object storage before deleting it.
type Purger struct {
	orders       *store.OrderStore
	errors       *store.ErrorStore
	runs         *store.RunStore
	priceHistory *store.PriceHistoryStore
	objectStore  external.ObjectStore
	logger       *slog.Logger
}

// NewPurger builds a Purger. objectStore may be nil, in which case
// price_history archival is skipped entirely (rows are never deleted
// without a successful upload first, mirroring the source's
// don't-delete-on-upload-failure rule).
func NewPurger(orders *store.OrderStore, errors *store.ErrorStore, runs *store.RunStore, priceHistory *store.PriceHistoryStore, objectStore external.ObjectStore, logger *slog.Logger) *Purger {
	return &Purger{orders: orders, errors: errors, runs: runs, priceHistory: priceHistory, objectStore: objectStore, logger: logger}
}

// Results bundles the row counts affected by each sweep.
type Results struct {
	PIIPurged          int64
	ErrorLogsPurged    int64
	PipelineRunsPurged int64
	PriceHistoryArchived int64
}

// RunAll executes every sweep in turn, logging and continuing past a
// single sweep's failure rather than aborting the rest.
func (p *Purger) RunAll(ctx context.Context) Results {
	var r Results

	if n, err := p.orders.PurgeCustomerData(ctx); err != nil {
		p.logger.Error("PII purge failed", "error", err)
	} else {
		r.PIIPurged = n
	}

	if n, err := p.errors.PurgeOlderThanDays(ctx, ErrorLogRetentionDays); err != nil {
		p.logger.Error("error_log purge failed", "error", err)
	} else {
		r.ErrorLogsPurged = n
	}

	if n, err := p.runs.PurgeOlderThanDays(ctx, PipelineRunsRetentionDays); err != nil {
		p.logger.Error("pipeline_runs purge failed", "error", err)
	} else {
		r.PipelineRunsPurged = n
	}

	if n, err := p.archivePriceHistory(ctx); err != nil {
		p.logger.Error("price_history archival failed", "error", err)
	} else {
		r.PriceHistoryArchived = n
	}

	return r
}

// archivePriceHistory exports every price_history row older than the
// retention window to a single CSV object, and only deletes the rows from
// the relational store once that upload has succeeded.
func (p *Purger) archivePriceHistory(ctx context.Context) (int64, error) {
	rows, err := p.priceHistory.ListOlderThanOneYear(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing aged price_history rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if p.objectStore == nil {
		p.logger.Info("no object store configured, skipping price_history archival", "eligible", len(rows))
		return 0, nil
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "sticker_id", "old_price", "new_price", "pricing_tier", "reason", "created_at"})
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		_ = w.Write([]string{
			row.ID.String(), row.StickerID.String(),
			strconv.FormatFloat(row.OldPrice, 'f', 2, 64),
			strconv.FormatFloat(row.NewPrice, 'f', 2, 64),
			string(row.PricingTier), row.Reason, row.CreatedAt.Format(time.RFC3339),
		})
		ids = append(ids, row.ID)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("encoding price_history csv: %w", err)
	}

	key := fmt.Sprintf("archives/price_history/price-history-%s.csv", time.Now().UTC().Format("2006-01-02"))
	if _, err := p.objectStore.Put(ctx, key, []byte(b.String())); err != nil {
		return 0, fmt.Errorf("uploading price_history archive: %w", err)
	}

	if err := p.priceHistory.DeleteByIDs(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting archived price_history rows: %w", err)
	}

	return int64(len(ids)), nil
}
