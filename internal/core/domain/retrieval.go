package domain

// Chunk is a bounded span of source text plus its vector embedding.
// Chunks are immutable once indexed and owned by the vector index;
// the ingestion pipeline that produces them is outside this repository.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Source is the label of the document the chunk came from.
	Source string

	// Embedding is the vector representation of Text. It is populated
	// at ingestion time and must share the embedding space of queries.
	Embedding []float32
}

// RetrievedChunk is a chunk ranked against a question.
// Created per query, never persisted.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the question embedding (0-1).
	Score float64
}

// snippetLimit caps the length of context snippets echoed back to callers.
const snippetLimit = 300

// Snippet returns the chunk text capped for display, with an ellipsis
// when truncated.
func (r RetrievedChunk) Snippet() string {
	runes := []rune(r.Chunk.Text)
	if len(runes) <= snippetLimit {
		return r.Chunk.Text
	}
	return string(runes[:snippetLimit]) + "..."
}
