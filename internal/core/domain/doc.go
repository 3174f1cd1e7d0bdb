// Package domain defines the core business entities for Lenden.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A span of source text with its vector embedding
//   - RetrievedChunk: A chunk ranked against a question
//   - Turn: One question/answer exchange within a session
//   - Answer: The orchestrated result returned to callers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
