package domain

// Answer is the orchestrated result of a single question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// ContextUsed contains the snippets of the retrieved chunks that
	// grounded the answer, in retrieval rank order.
	ContextUsed []string

	// Sources contains the distinct source labels of the retrieved
	// chunks, in first-seen retrieval order.
	Sources []string

	// SessionID is the session the turn was recorded under. Echoed from
	// the request, or newly generated when the caller supplied none.
	SessionID string

	// Degraded is true when retrieval failed or found nothing and the
	// answer was generated without supporting context.
	Degraded bool
}
