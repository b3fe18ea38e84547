// Package model defines the tagged record types backing every table in
// the relational store. Filter-key whitelists for each table live
// alongside their type as closed Go constants rather than reflection-based
// field discovery.
package model

import (
	"time"

	"github.com/google/uuid"
)

// TrendStatus is the lifecycle status of a Trend.
type TrendStatus string

const (
	TrendDiscovered      TrendStatus = "discovered"
	TrendQueued          TrendStatus = "queued"
	TrendGenerated       TrendStatus = "generated"
	TrendGenerationFailed TrendStatus = "generation_failed"
)

// Trend is a discovered cultural topic candidate, deduplicated across sources.
type Trend struct {
	ID              uuid.UUID
	Topic           string
	NormalizedTopic string // unique dedup key
	Sources         []string
	Keywords        []string
	VelocityScore   int // 1-10
	CommercialScore int // 1-10
	SafetyScore     int // 1-10
	UniquenessScore int // 1-10
	OverallScore    float64 // 1.0-10.0
	Status          TrendStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TrendColumns is the closed whitelist of filterable/sortable trend columns.
var TrendColumns = map[string]bool{
	"id": true, "topic": true, "normalized_topic": true, "status": true,
	"created_at": true, "updated_at": true, "overall_score": true,
}

// SizeClass is a sticker's physical product size.
type SizeClass string

const (
	SizeSingleSmall SizeClass = "single_small"
	SizeSingleLarge SizeClass = "single_large"
)

// PricingTier is a named position along the trend-freshness timeline.
type PricingTier string

const (
	TierJustDropped PricingTier = "just_dropped"
	TierTrending    PricingTier = "trending"
	TierCooling     PricingTier = "cooling"
	TierEvergreen   PricingTier = "evergreen"
	TierArchived    PricingTier = "archived"
)

// ModerationStatus is a sticker's moderation/listing lifecycle status.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationFlagged  ModerationStatus = "flagged"
	ModerationRejected ModerationStatus = "rejected"
	ModerationArchived ModerationStatus = "archived"
)

// Sticker is a vinyl-sticker product listing generated for a Trend.
type Sticker struct {
	ID                   uuid.UUID
	TrendID              uuid.UUID
	Title                string
	Description          string
	ArtworkURL           string
	MockupURL            string
	ThumbnailURL         string
	Size                 SizeClass
	Price                float64
	FloorPrice           float64
	PricingTier          PricingTier
	ModerationStatus     ModerationStatus
	MarketplaceListingID *string
	PublishedAt          *time.Time
	SalesCount           int
	ViewCount            int
	LastSaleAt           *time.Time
	FulfillmentProvider  string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// StickerColumns is the closed whitelist of filterable sticker columns.
var StickerColumns = map[string]bool{
	"id": true, "trend_id": true, "size": true, "pricing_tier": true,
	"moderation_status": true, "marketplace_listing_id": true,
	"published_at": true, "sales_count": true, "view_count": true,
	"fulfillment_provider": true, "created_at": true,
}

// OrderStatus tracks fulfillment progress of a marketplace sale.
type OrderStatus string

const (
	OrderPaid           OrderStatus = "paid"
	OrderSentToPrint    OrderStatus = "sent_to_print"
	OrderPrintConfirmed OrderStatus = "print_confirmed"
	OrderShipped        OrderStatus = "shipped"
	OrderDelivered      OrderStatus = "delivered"
	OrderPendingManual  OrderStatus = "pending_manual"
	OrderPrinted        OrderStatus = "printed"
	OrderRefunded       OrderStatus = "refunded"
)

// Order is a single marketplace sale of a Sticker.
type Order struct {
	ID                   uuid.UUID
	StickerID            uuid.UUID
	MarketplaceReceiptID string
	Status               OrderStatus
	Quantity             int
	UnitPrice            float64
	PricingTierAtSale    PricingTier // frozen at creation, never mutated
	CustomerData         []byte      // nullable JSON blob, nullified 90d after DeliveredAt
	CreatedAt            time.Time
	ShippedAt            *time.Time
	DeliveredAt          *time.Time
	FulfillmentAttempts  int
	LastFulfillmentError string
}

// RunStatus is the terminal or in-flight status of a PipelineRun.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunPartial   RunStatus = "partial"
)

// PipelineRun tracks one execution of a scheduled workflow.
type PipelineRun struct {
	ID                  uuid.UUID
	Workflow            string
	Status              RunStatus
	StartedAt           time.Time
	EndedAt             *time.Time
	DurationSeconds     *int
	TrendsFound         int
	StickersGenerated   int
	PricesUpdated       int
	StickersArchived    int
	ErrorsCount         int
	APICallsUsed        int
	AICostEstimateUSD   float64
	Metadata            map[string]any
}

// ErrorKind is the closed taxonomy of error categories.
type ErrorKind string

const (
	ErrAPIError        ErrorKind = "api_error"
	ErrRateLimit       ErrorKind = "rate_limit"
	ErrTimeout         ErrorKind = "timeout"
	ErrValidation      ErrorKind = "validation"
	ErrAuth            ErrorKind = "auth"
	ErrProcessingError ErrorKind = "processing_error"
	ErrRetryExhausted  ErrorKind = "retry_exhausted"
	ErrCircuitOpen     ErrorKind = "circuit_open"
	ErrRateLimiterErr  ErrorKind = "rate_limiter_error"
	ErrStorageError    ErrorKind = "storage_error"
	ErrInvalidGrant    ErrorKind = "invalid_grant"
)

// ErrorLog is a single redacted error event.
type ErrorLog struct {
	ID            uuid.UUID
	Workflow      string
	Step          string
	Kind          ErrorKind
	Message       string // sanitized before storage
	Service       string
	PipelineRunID *uuid.UUID
	RetryCount    int
	Resolved      bool
	Context       map[string]any // sanitized before storage
	CreatedAt     time.Time
}

// PriceHistory is an append-only record of a sticker's price change.
type PriceHistory struct {
	ID          uuid.UUID
	StickerID   uuid.UUID
	OldPrice    float64
	NewPrice    float64
	PricingTier PricingTier
	Reason      string // "trend_age" | "tier_change:<from>-><to>" | "archived"
	CreatedAt   time.Time
}
