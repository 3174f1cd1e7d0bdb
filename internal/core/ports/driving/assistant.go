package driving

import (
	"context"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// AssistantService answers questions grounded in the document corpus.
type AssistantService interface {
	// Ask answers a question within a session. A blank sessionID gets a
	// generated one, echoed back in the result.
	Ask(ctx context.Context, question, sessionID string) (*domain.Answer, error)

	// ClearHistory removes all conversation history for a session.
	// Clearing an unknown session succeeds silently.
	ClearHistory(ctx context.Context, sessionID string) error
}
