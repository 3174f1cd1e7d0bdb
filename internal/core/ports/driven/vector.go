package driven

import (
	"context"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// VectorIndex provides similarity search over the pre-built chunk index.
// The index is read-only from the engine's perspective; it is produced
// by the offline ingestion pipeline.
type VectorIndex interface {
	// Search finds the k chunks most similar to the query vector,
	// ordered by descending similarity. Ties preserve index insertion
	// order. An empty index returns an empty slice, not an error.
	Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedChunk, error)

	// Len returns the number of indexed chunks.
	Len() int

	// ModelName returns the embedding model the index was built with.
	ModelName() string

	// Dimensions returns the embedding vector size of the index.
	Dimensions() int

	// Close releases resources.
	Close() error
}
