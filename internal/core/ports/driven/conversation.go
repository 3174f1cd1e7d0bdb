package driven

import (
	"context"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// ConversationStore persists per-session conversation history.
//
// Histories are append-only: only Clear truncates them. Implementations
// serialise Append calls within a session so concurrent requests on the
// same session cannot lose or interleave turns, while appends on
// different sessions proceed independently. Reads observe a consistent
// snapshot - never a partially written turn.
type ConversationStore interface {
	// Load returns the full history for a session in append order.
	// Unknown sessions return an empty slice, not an error.
	Load(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Recent returns the last n turns for a session in chronological
	// order, fewer if the history is shorter.
	Recent(ctx context.Context, sessionID string, n int) ([]domain.Turn, error)

	// Append adds one turn to the end of the session's history,
	// creating the session if absent. A completed Append is visible to
	// subsequent Load and Recent calls.
	Append(ctx context.Context, sessionID string, turn domain.Turn) error

	// Clear removes all history for a session. Clearing an empty or
	// unknown session succeeds silently.
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
