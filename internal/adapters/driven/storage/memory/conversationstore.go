// Package memory provides in-memory implementations of storage ports.
// These are used for testing and for running without persistence.
package memory

import (
	"context"
	"sync"

	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
// Histories do not survive process restart. Safe for concurrent use.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string][]domain.Turn),
	}
}

// Load returns the full history for a session in append order.
func (s *ConversationStore) Load(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Recent returns the last n turns for a session in chronological order.
func (s *ConversationStore) Recent(_ context.Context, sessionID string, n int) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := domain.LastN(s.sessions[sessionID], n)
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds one turn to the end of the session's history.
func (s *ConversationStore) Append(_ context.Context, sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// Clear removes all history for a session. Unknown sessions succeed.
func (s *ConversationStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Close releases resources. No-op for the in-memory store.
func (s *ConversationStore) Close() error {
	return nil
}
