package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stickertrendz/pipeline/internal/model"
)

// OrderStore provides database operations for orders.
type OrderStore struct {
	dbtx DBTX
}

func NewOrderStore(dbtx DBTX) *OrderStore {
	return &OrderStore{dbtx: dbtx}
}

const orderColumns = `id, sticker_id, marketplace_receipt_id, status, quantity, unit_price,
	pricing_tier_at_sale, customer_data, created_at, shipped_at, delivered_at,
	fulfillment_attempts, last_fulfillment_error`

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.StickerID, &o.MarketplaceReceiptID, &o.Status, &o.Quantity, &o.UnitPrice,
		&o.PricingTierAtSale, &o.CustomerData, &o.CreatedAt, &o.ShippedAt, &o.DeliveredAt,
		&o.FulfillmentAttempts, &o.LastFulfillmentError,
	)
	return o, err
}

// GetByReceiptID looks up an order by its marketplace receipt id, the
// natural key used to make order ingestion idempotent across runs.
func (s *OrderStore) GetByReceiptID(ctx context.Context, receiptID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE marketplace_receipt_id = $1`
	o, err := scanOrder(s.dbtx.QueryRow(ctx, query, receiptID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting order by receipt id: %w", err)
	}
	return &o, nil
}

// Create inserts a new order, freezing pricing_tier_at_sale at the
// sticker's current tier. pricing_tier_at_sale never mutates after this.
func (s *OrderStore) Create(ctx context.Context, o model.Order) (model.Order, error) {
	query := `INSERT INTO orders (
		sticker_id, marketplace_receipt_id, status, quantity, unit_price,
		pricing_tier_at_sale, customer_data
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + orderColumns
	return scanOrder(s.dbtx.QueryRow(ctx, query,
		o.StickerID, o.MarketplaceReceiptID, o.Status, o.Quantity, o.UnitPrice,
		o.PricingTierAtSale, o.CustomerData,
	))
}

// SetStatus transitions an order's fulfillment status.
func (s *OrderStore) SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("setting order status: %w", err)
	}
	return nil
}

// RecordFulfillmentAttempt increments the attempt counter and stores the
// last error, or clears it on success.
func (s *OrderStore) RecordFulfillmentAttempt(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := s.dbtx.Exec(ctx,
		`UPDATE orders SET fulfillment_attempts = fulfillment_attempts + 1, last_fulfillment_error = $2 WHERE id = $1`,
		id, lastError)
	if err != nil {
		return fmt.Errorf("recording fulfillment attempt: %w", err)
	}
	return nil
}

// ListByStatus returns orders in the given status, oldest first.
func (s *OrderStore) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at ASC`
	rows, err := s.dbtx.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("listing orders by status: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PurgeCustomerData nullifies customer_data for orders delivered more than
// 90 days ago, per the order retention rule.
func (s *OrderStore) PurgeCustomerData(ctx context.Context) (int64, error) {
	tag, err := s.dbtx.Exec(ctx,
		`UPDATE orders SET customer_data = NULL
		 WHERE customer_data IS NOT NULL AND delivered_at IS NOT NULL
		   AND delivered_at <= now() - interval '90 days'`)
	if err != nil {
		return 0, fmt.Errorf("purging customer data: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkShipped records the shipped_at timestamp.
func (s *OrderStore) MarkShipped(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE orders SET shipped_at = $2, status = 'shipped' WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("marking order shipped: %w", err)
	}
	return nil
}

// MarkDelivered records the delivered_at timestamp.
func (s *OrderStore) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE orders SET delivered_at = $2, status = 'delivered' WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("marking order delivered: %w", err)
	}
	return nil
}
