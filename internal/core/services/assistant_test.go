package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenden-labs/lenden/internal/adapters/driven/storage/memory"
	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
)

// mockGenerationService implements driven.GenerationService for testing.
type mockGenerationService struct {
	mu          sync.Mutex
	result      string
	generateErr error
	delay       time.Duration
	prompts     []string
}

func (m *mockGenerationService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.result, nil
}

func (m *mockGenerationService) ModelName() string { return "mock-llm" }

func (m *mockGenerationService) Ping(_ context.Context) error { return nil }

func (m *mockGenerationService) Close() error { return nil }

func (m *mockGenerationService) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// failingStore wraps the memory store to inject errors.
type failingStore struct {
	*memory.ConversationStore
	recentErr error
	appendErr error
}

func (f *failingStore) Recent(ctx context.Context, sessionID string, n int) ([]domain.Turn, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.ConversationStore.Recent(ctx, sessionID, n)
}

func (f *failingStore) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.ConversationStore.Append(ctx, sessionID, turn)
}

// --- Test helpers ---

func newTestAssistant(store driven.ConversationStore, gen driven.GenerationService) *AssistantService {
	embedder := &mockEmbeddingService{embedding: []float32{0.1, 0.2, 0.3}}
	index := &mockVectorIndex{chunks: []domain.RetrievedChunk{
		{Chunk: domain.Chunk{Text: "The minimum down payment for a home loan is 10% of the property value.", Source: "HomeLoanPolicy.pdf"}, Score: 0.92},
		{Chunk: domain.Chunk{Text: "Home loan processing fees are 0.25% of the sanctioned amount.", Source: "HomeLoanPolicy.pdf"}, Score: 0.85},
		{Chunk: domain.Chunk{Text: "Car loan tenure extends up to seven years.", Source: "CarLoanPolicy.pdf"}, Score: 0.6},
	}}
	retriever := NewRetriever(embedder, index, domain.DefaultSettings().Retrieval)
	return NewAssistantService(store, retriever, gen, domain.DefaultSettings())
}

// --- Tests ---

func TestAssistantService_Ask(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "The minimum down payment is 10%."}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	answer, err := svc.Ask(ctx, "What is the minimum down payment?", "session-1")

	require.NoError(t, err)
	assert.Equal(t, "The minimum down payment is 10%.", answer.Text)
	assert.Equal(t, "session-1", answer.SessionID)
	assert.False(t, answer.Degraded)
	assert.Len(t, answer.ContextUsed, 3)

	// Distinct sources in first-seen retrieval order.
	assert.Equal(t, []string{"HomeLoanPolicy.pdf", "CarLoanPolicy.pdf"}, answer.Sources)

	// The turn is persisted with its context count.
	turns, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "What is the minimum down payment?", turns[0].Question)
	assert.Equal(t, "The minimum down payment is 10%.", turns[0].Answer)
	assert.Equal(t, 3, turns[0].ContextCount)
}

func TestAssistantService_Ask_EmptyQuestion(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "unused"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "   \t\n  ", "session-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Nothing reaches the provider or the store.
	assert.Empty(t, gen.prompts)
	turns, loadErr := store.Load(ctx, "session-1")
	require.NoError(t, loadErr)
	assert.Empty(t, turns)
}

func TestAssistantService_Ask_QuestionTooShort(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{})

	_, err := svc.Ask(context.Background(), "hi", "session-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssistantService_Ask_QuestionTooLong(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{})

	_, err := svc.Ask(context.Background(), strings.Repeat("a", domain.MaxQuestionLen+1), "session-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssistantService_Ask_SessionIDTooLong(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{})

	_, err := svc.Ask(context.Background(), "What is the down payment?", strings.Repeat("s", domain.MaxSessionIDLen+1))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssistantService_Ask_CollapsesWhitespace(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "  what   is\tthe\n down payment?  ", "session-1")

	require.NoError(t, err)
	turns, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "what is the down payment?", turns[0].Question)
}

func TestAssistantService_Ask_GeneratesSessionID(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	answer, err := svc.Ask(ctx, "What is the down payment?", "")

	require.NoError(t, err)
	require.NotEmpty(t, answer.SessionID)

	// The generated id is usable for follow-up requests.
	turns, err := store.Load(ctx, answer.SessionID)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestAssistantService_Ask_HistoryInPrompt(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "session-1", domain.Turn{
		Question: "What loans do you offer?",
		Answer:   "Home, car and education loans.",
	}))

	_, err := svc.Ask(ctx, "What about interest rates?", "session-1")

	require.NoError(t, err)
	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "User: What loans do you offer?")
	assert.Contains(t, prompt, "Assistant: Home, car and education loans.")
}

func TestAssistantService_Ask_HistoryWindowed(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, "session-1", domain.Turn{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		}))
	}

	_, err := svc.Ask(ctx, "What about interest rates?", "session-1")

	require.NoError(t, err)
	prompt := gen.lastPrompt()
	assert.NotContains(t, prompt, "question 1")
	assert.NotContains(t, prompt, "question 2")
	assert.Contains(t, prompt, "question 3")
	assert.Contains(t, prompt, "question 5")
}

func TestAssistantService_Ask_RetrievalFailureDegrades(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "conservative answer"}
	embedder := &mockEmbeddingService{embedErr: errors.New("provider down")}
	index := &mockVectorIndex{}
	retriever := NewRetriever(embedder, index, domain.DefaultSettings().Retrieval)
	svc := NewAssistantService(store, retriever, gen, domain.DefaultSettings())
	ctx := context.Background()

	answer, err := svc.Ask(ctx, "What is the down payment?", "session-1")

	require.NoError(t, err)
	assert.True(t, answer.Degraded)
	assert.Empty(t, answer.ContextUsed)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, gen.lastPrompt(), noContextNotice)

	// Degraded answers are still persisted, with zero context.
	turns, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, 0, turns[0].ContextCount)
}

func TestAssistantService_Ask_HistoryLoadFailureDegrades(t *testing.T) {
	store := &failingStore{
		ConversationStore: memory.NewConversationStore(),
		recentErr:         errors.New("disk error"),
	}
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)

	answer, err := svc.Ask(context.Background(), "What is the down payment?", "session-1")

	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), "No previous conversation")
	assert.NotNil(t, answer)
}

func TestAssistantService_Ask_GenerationFailure(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{generateErr: errors.New("api error")}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "What is the down payment?", "session-1")

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)

	// A failed generation must not leave a turn behind.
	turns, loadErr := store.Load(ctx, "session-1")
	require.NoError(t, loadErr)
	assert.Empty(t, turns)
}

func TestAssistantService_Ask_GenerationTimeout(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "too late", delay: 100 * time.Millisecond}
	settings := domain.DefaultSettings()
	settings.Generation.Timeout = 5 * time.Millisecond
	embedder := &mockEmbeddingService{embedding: []float32{0.1}}
	index := &mockVectorIndex{}
	retriever := NewRetriever(embedder, index, settings.Retrieval)
	svc := NewAssistantService(store, retriever, gen, settings)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "What is the down payment?", "session-1")

	assert.ErrorIs(t, err, domain.ErrGenerationTimeout)

	turns, loadErr := store.Load(ctx, "session-1")
	require.NoError(t, loadErr)
	assert.Empty(t, turns)
}

func TestAssistantService_Ask_NoGenerator(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), nil)

	_, err := svc.Ask(context.Background(), "What is the down payment?", "session-1")

	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestAssistantService_Ask_PersistenceFailureStillAnswers(t *testing.T) {
	store := &failingStore{
		ConversationStore: memory.NewConversationStore(),
		appendErr:         errors.New("disk full"),
	}
	gen := &mockGenerationService{result: "the answer"}
	svc := newTestAssistant(store, gen)

	answer, err := svc.Ask(context.Background(), "What is the down payment?", "session-1")

	require.NoError(t, err)
	assert.Equal(t, "the answer", answer.Text)
}

func TestAssistantService_Ask_ConcurrentSameSession(t *testing.T) {
	store := memory.NewConversationStore()
	gen := &mockGenerationService{result: "answer"}
	svc := newTestAssistant(store, gen)
	ctx := context.Background()

	var wg sync.WaitGroup
	const n = 10
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Ask(ctx, "What is the down payment?", "session-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	turns, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, turns, n)
}

func TestAssistantService_ClearHistory(t *testing.T) {
	store := memory.NewConversationStore()
	svc := newTestAssistant(store, &mockGenerationService{})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "session-1", domain.Turn{Question: "q", Answer: "a"}))

	require.NoError(t, svc.ClearHistory(ctx, "session-1"))

	turns, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAssistantService_ClearHistory_UnknownSession(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{})

	assert.NoError(t, svc.ClearHistory(context.Background(), "never-seen"))
}

func TestAssistantService_ClearHistory_InvalidSessionID(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{})

	assert.ErrorIs(t, svc.ClearHistory(context.Background(), ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.ClearHistory(context.Background(), strings.Repeat("s", domain.MaxSessionIDLen+1)), domain.ErrInvalidInput)
}

func TestAssistantService_PromptStoreFallback(t *testing.T) {
	svc := newTestAssistant(memory.NewConversationStore(), &mockGenerationService{result: "answer"})

	assert.Equal(t, DefaultGroundingPrompt, svc.groundingPrompt())
}
