// Package external declares the narrow interfaces for every third-party
// collaborator the pipeline calls out to: marketplace, LLM, image
// generation, object storage, and fulfillment. These are opaque I/O
// shells; the orchestrators wrap every call through them with
// pkg/resilience.
package external

import "context"

// ScoredTopic is one entry of an LLM batch_score response.
type ScoredTopic struct {
	Index     int
	Velocity  int
	Commercial int
	Safety    int
	Uniqueness int
	Overall   float64
	Reasoning string
}

// ModerationResult is the outcome of a moderate() call.
type ModerationResult struct {
	MaxScore   float64
	Categories map[string]float64
}

// LLM is the chat-completions provider contract.
type LLM interface {
	BatchScore(ctx context.Context, topics []string) ([]ScoredTopic, error)
	Moderate(ctx context.Context, text string) (ModerationResult, error)
}

// ImageGen is the image-generation provider contract.
type ImageGen interface {
	Generate(ctx context.Context, prompt string, size int) ([]byte, error)
}

// Receipt is a single marketplace order receipt.
type Receipt struct {
	ReceiptID  string
	ListingID  string
	Quantity   int
	UnitPrice  float64
	CustomerData map[string]any
}

// Marketplace is the outbound marketplace API contract.
type Marketplace interface {
	CreateListing(ctx context.Context, title, description, imageURL string, price float64) (listingID string, err error)
	UpdatePrice(ctx context.Context, listingID string, price float64) error
	Deactivate(ctx context.Context, listingID string) error
	ListReceipts(ctx context.Context, since string) ([]Receipt, error)
}

// ObjectStore is the blob storage contract (artifact/artwork hosting, cold
// price-history archival).
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (url string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// FulfillmentStatus is the status of a submitted print-and-ship job.
type FulfillmentStatus struct {
	ID       string
	State    string
	Tracking string
}

// Fulfillment is the print-on-demand fulfillment provider contract.
type Fulfillment interface {
	Submit(ctx context.Context, imageURL, address string, size string, qty int) (id string, err error)
	Status(ctx context.Context, id string) (FulfillmentStatus, error)
	Tracking(ctx context.Context, id string) (string, error)
}

// RawCandidate is one trend discovery emitted by a TrendSource, before
// dedup and scoring.
type RawCandidate struct {
	Topic      string
	Keywords   []string
	ScoreHint  float64 // source-native engagement signal (upvotes, search volume, ...)
	SourceData map[string]any
}

// TrendSource is one trend-discovery feed (Reddit, a search-volume API, a
// social listening API, ...). trend_monitor fetches from every configured
// source and tolerates individual source failures.
type TrendSource interface {
	Name() string
	Fetch(ctx context.Context) ([]RawCandidate, error)
}

// ProcessedImage is the output of a generated sticker image's
// post-processing pass: print-ready and thumbnail renditions.
type ProcessedImage struct {
	PrintReady []byte
	Thumbnail  []byte
}

// ImageProcessor validates and post-processes a raw generated image. Both
// steps are treated as opaque collaborators — pixel-level image work has
// no home in the core orchestration logic.
type ImageProcessor interface {
	Validate(ctx context.Context, image []byte) (ok bool, failures []string, err error)
	PostProcess(ctx context.Context, image []byte) (ProcessedImage, error)
}

// PromptGenerator turns a trend topic into an image-generation prompt.
type PromptGenerator interface {
	Generate(ctx context.Context, topic string, keywords []string) (string, error)
}
