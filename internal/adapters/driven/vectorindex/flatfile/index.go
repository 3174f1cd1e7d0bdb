// Package flatfile provides a vector index adapter backed by a JSON
// artifact produced by the offline ingestion pipeline.
//
// The artifact records the embedding model it was built with, so the
// factory can refuse to pair it with a mismatched embedding provider.
// The whole index is held in memory; search is an exact cosine scan,
// which is fine for corpora of a few thousand chunks.
package flatfile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// artifact is the on-disk index format.
type artifact struct {
	// Model is the embedding model the chunk vectors were produced with.
	Model string `json:"model"`

	// Dimension is the embedding vector size.
	Dimension int `json:"dimension"`

	// Chunks are the indexed chunks with their embeddings.
	Chunks []artifactChunk `json:"chunks"`
}

type artifactChunk struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding"`
}

// Index is an in-memory vector index loaded from a flat file.
// It is immutable after load and safe for concurrent use.
type Index struct {
	path      string
	model     string
	dimension int
	chunks    []domain.Chunk

	// norms caches the vector magnitudes so each search costs one
	// dot product per chunk instead of two.
	norms []float64
}

// Load reads an index artifact from disk.
//
// A missing file is not an error: it yields an empty index so the
// engine can start before the first ingestion run.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Index{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parsing index file %s: %w", path, err)
	}

	idx := &Index{
		path:      path,
		model:     art.Model,
		dimension: art.Dimension,
		chunks:    make([]domain.Chunk, 0, len(art.Chunks)),
		norms:     make([]float64, 0, len(art.Chunks)),
	}

	for i, c := range art.Chunks {
		if art.Dimension > 0 && len(c.Embedding) != art.Dimension {
			return nil, fmt.Errorf("index file %s: chunk %d has %d dimensions, want %d",
				path, i, len(c.Embedding), art.Dimension)
		}
		idx.chunks = append(idx.chunks, domain.Chunk{
			Text:      c.Text,
			Source:    c.Source,
			Embedding: c.Embedding,
		})
		idx.norms = append(idx.norms, norm(c.Embedding))
	}

	return idx, nil
}

// Search finds the k chunks most similar to the query vector by cosine
// similarity, ordered descending. Ties preserve insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 || len(idx.chunks) == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if idx.dimension > 0 && len(query) != idx.dimension {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(query), idx.dimension)
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	scored := make([]domain.RetrievedChunk, 0, len(idx.chunks))
	for i, c := range idx.chunks {
		if idx.norms[i] == 0 {
			continue
		}
		score := dot(query, c.Embedding) / (queryNorm * idx.norms[i])
		scored = append(scored, domain.RetrievedChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// ModelName returns the embedding model the index was built with.
func (idx *Index) ModelName() string {
	return idx.model
}

// Dimensions returns the embedding vector size of the index.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

// Path returns the index file path.
func (idx *Index) Path() string {
	return idx.path
}

// Close releases resources. No-op for the in-memory index.
func (idx *Index) Close() error {
	return nil
}

// dot computes the dot product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// norm computes the Euclidean magnitude of a vector.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
