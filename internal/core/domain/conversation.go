package domain

import "time"

// Turn is one question/answer exchange within a session.
// Turns are immutable once created and append-only in storage.
type Turn struct {
	// Question is the user's question as validated by the orchestrator.
	Question string

	// Answer is the generated answer text.
	Answer string

	// CreatedAt is when the turn was completed.
	CreatedAt time.Time

	// ContextCount records how many retrieved chunks grounded the answer.
	// Informational only; zero for answers generated without context.
	ContextCount int
}

// LastN returns the last n turns of a history, fewer if the history is
// shorter. The returned slice aliases the input; turns are immutable.
func LastN(turns []Turn, n int) []Turn {
	if n <= 0 {
		return []Turn{}
	}
	if n >= len(turns) {
		return turns
	}
	return turns[len(turns)-n:]
}
