package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates an empty or malformed question.
	// Rejected before any external call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingFailed indicates the embedding provider returned an error.
	// Retrieval degrades to empty context rather than aborting the request.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrRetrievalFailed indicates the vector index could not be searched.
	// Retrieval degrades to empty context rather than aborting the request.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the generation provider returned an error.
	// Fatal for the current request; nothing is persisted.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout indicates the generation call exceeded its deadline.
	// Fatal for the current request; nothing is persisted.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrPersistenceFailed indicates a turn could not be appended after a
	// successful generation. The answer is still returned; history is lost.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrGenerationUnavailable indicates no generation provider is configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexMismatch indicates the vector index was built with a different
	// embedding model or dimension than the configured provider. Querying a
	// mismatched index silently degrades quality, so this is a hard
	// configuration error at startup.
	ErrIndexMismatch = errors.New("vector index embedding model mismatch")
)
