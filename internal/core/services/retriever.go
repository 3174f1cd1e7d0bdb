package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
	"github.com/lenden-labs/lenden/internal/logger"
)

// Retriever finds the chunks most relevant to a question by embedding it
// and searching the vector index. It is read-only and safe for concurrent
// use.
type Retriever struct {
	embedder      driven.EmbeddingService
	index         driven.VectorIndex
	maxK          int
	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// NewRetriever creates a retriever over the given embedding service and
// vector index. Both may be nil, in which case Retrieve always returns an
// empty result and the orchestrator runs in degraded mode.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, cfg domain.RetrievalSettings) *Retriever {
	maxK := cfg.MaxK
	if maxK <= 0 {
		maxK = 20
	}
	return &Retriever{
		embedder:      embedder,
		index:         index,
		maxK:          maxK,
		embedTimeout:  cfg.EmbedTimeoutOrDefault(),
		searchTimeout: cfg.SearchTimeoutOrDefault(),
	}
}

// Retrieve returns the k chunks most similar to the question, ordered by
// descending similarity with ties in index insertion order.
//
// Failures degrade rather than abort: an embedding or index error returns
// an empty result alongside the wrapped error so the caller can flag the
// response as degraded and still attempt an answer. Only context
// cancellation propagates unwrapped.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if k > r.maxK {
		k = r.maxK
	}

	if r.embedder == nil {
		return []domain.RetrievedChunk{}, domain.ErrEmbeddingUnavailable
	}
	if r.index == nil {
		return []domain.RetrievedChunk{}, domain.ErrRetrievalFailed
	}

	logger.Debug("Retrieve: k=%d question=%q", k, question)

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vec, err := r.embedder.Embed(embedCtx, question)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Retrieve: query embedding failed: %v", err)
		return []domain.RetrievedChunk{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	chunks, err := r.index.Search(searchCtx, vec, k)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Retrieve: index search failed: %v", err)
		return []domain.RetrievedChunk{}, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	logger.Debug("Retrieve: %d chunks", len(chunks))
	return chunks, nil
}
