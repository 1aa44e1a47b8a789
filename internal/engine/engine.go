package engine

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// FuzzinessAuto lets the engine pick the edit distance from the term length.
const FuzzinessAuto = "AUTO"

// Query is a fuzzy full-text query over product and category names.
type Query struct {
	Text string
	// Fuzziness is "AUTO" or a maximum edit distance such as "1".
	Fuzziness string
	// Limit caps the number of hits; 0 means the engine default.
	Limit int
}

// Hit is one matching document in relevance order.
type Hit struct {
	ID       string
	Score    float64
	Document domain.IndexDocument
}

// SearchEngine defines the interface for the product search index.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type SearchEngine interface {
	// Ping reports whether the index backend is reachable.
	Ping(ctx context.Context) error

	// EnsureIndex creates the index with its mapping when it does not exist.
	EnsureIndex(ctx context.Context) error

	// Index adds or replaces a single document keyed by its product id.
	Index(ctx context.Context, doc *domain.IndexDocument) error

	// BulkIndex adds or replaces many documents in one round trip.
	BulkIndex(ctx context.Context, docs []domain.IndexDocument) error

	// Delete removes a document. A missing document is not an error.
	Delete(ctx context.Context, id string) error

	// Search runs a fuzzy multi-field query and returns hits by relevance.
	Search(ctx context.Context, q Query) ([]Hit, error)

	// IDs returns the ids of every indexed document.
	IDs(ctx context.Context) ([]string, error)
}
