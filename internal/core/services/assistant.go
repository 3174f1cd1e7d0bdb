package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
	"github.com/lenden-labs/lenden/internal/core/ports/driving"
	"github.com/lenden-labs/lenden/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService orchestrates a single question/answer request:
// validate, load history, retrieve context, assemble the prompt,
// generate, persist the turn, respond.
type AssistantService struct {
	store       driven.ConversationStore
	retriever   *Retriever
	generator   driven.GenerationService
	promptStore driven.PromptStore

	topK            int
	historyWindow   int
	generateTimeout time.Duration
	temperature     float64
}

// NewAssistantService creates the orchestrator. The promptStore is
// optional; when nil the embedded grounding prompt is used.
func NewAssistantService(
	store driven.ConversationStore,
	retriever *Retriever,
	generator driven.GenerationService,
	settings domain.Settings,
) *AssistantService {
	topK := settings.Retrieval.TopK
	if topK <= 0 {
		topK = 5
	}
	window := settings.History.Window
	if window <= 0 {
		window = 3
	}
	timeout := settings.Generation.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &AssistantService{
		store:           store,
		retriever:       retriever,
		generator:       generator,
		topK:            topK,
		historyWindow:   window,
		generateTimeout: timeout,
		temperature:     settings.Generation.Temperature,
	}
}

// SetPromptStore sets the prompt store for loading the customisable
// grounding preamble. If not set, the embedded default is used.
func (s *AssistantService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ask answers a question within a session.
//
// Retrieval and history failures degrade the response rather than abort
// it; generation failures abort without persisting anything. A
// persistence failure after successful generation is logged and the
// answer is still returned.
func (s *AssistantService) Ask(ctx context.Context, question, sessionID string) (*domain.Answer, error) {
	logger.Section("Ask")

	question, err := validateQuestion(question)
	if err != nil {
		return nil, err
	}
	sessionID, err = resolveSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Ask: session=%s question=%q", sessionID, question)

	if s.generator == nil {
		return nil, domain.ErrGenerationUnavailable
	}

	// Load the prompt window. A read failure costs context, not the answer.
	var recent []domain.Turn
	if s.store != nil {
		recent, err = s.store.Recent(ctx, sessionID, s.historyWindow)
		if err != nil {
			logger.Warn("Ask: history load failed for session %s: %v", sessionID, err)
			recent = nil
		}
	}

	chunks, retErr := s.retrieveContext(ctx, question)
	if retErr != nil {
		return nil, retErr
	}
	degraded := len(chunks) == 0

	prompt := AssemblePrompt(s.groundingPrompt(), question, chunks, recent)

	answerText, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	turn := domain.Turn{
		Question:     question,
		Answer:       answerText,
		CreatedAt:    time.Now().UTC(),
		ContextCount: len(chunks),
	}
	if s.store != nil {
		if err := s.store.Append(ctx, sessionID, turn); err != nil {
			// Availability over durability: the answer is already
			// generated, so return it and flag the history loss.
			logger.Warn("Ask: %v: session %s: %v", domain.ErrPersistenceFailed, sessionID, err)
		}
	}

	return &domain.Answer{
		Text:        answerText,
		ContextUsed: contextSnippets(chunks),
		Sources:     distinctSources(chunks),
		SessionID:   sessionID,
		Degraded:    degraded,
	}, nil
}

// ClearHistory removes all conversation history for a session.
func (s *AssistantService) ClearHistory(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || utf8.RuneCountInString(sessionID) > domain.MaxSessionIDLen {
		return fmt.Errorf("%w: session id", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	logger.Info("ClearHistory: cleared session %s", sessionID)
	return nil
}

// retrieveContext runs retrieval in degraded-tolerant mode: provider
// errors yield empty context, only caller cancellation aborts.
func (s *AssistantService) retrieveContext(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	if s.retriever == nil {
		return nil, nil
	}
	chunks, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Warn("Ask: retrieval degraded to empty context: %v", err)
		return nil, nil
	}
	return chunks, nil
}

// generate calls the generation provider under the configured deadline.
// A timed-out generation must not be persisted as a turn, so errors here
// abort the request before any Append.
func (s *AssistantService) generate(ctx context.Context, prompt string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, prompt, driven.GenerateOptions{
		Temperature: s.temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	return strings.TrimSpace(text), nil
}

// groundingPrompt loads the instruction preamble, falling back to the
// embedded default when no store is configured or the load fails.
func (s *AssistantService) groundingPrompt() string {
	if s.promptStore == nil {
		return DefaultGroundingPrompt
	}
	prompt, err := s.promptStore.Load(driven.PromptGrounding)
	if err != nil || prompt == "" {
		return DefaultGroundingPrompt
	}
	return prompt
}

// validateQuestion trims and collapses whitespace, then enforces the
// length limits. Validation happens before any external call.
func validateQuestion(question string) (string, error) {
	question = strings.Join(strings.Fields(question), " ")
	if question == "" {
		return "", fmt.Errorf("%w: question cannot be empty", domain.ErrInvalidInput)
	}
	n := utf8.RuneCountInString(question)
	if n < domain.MinQuestionLen {
		return "", fmt.Errorf("%w: question is too short", domain.ErrInvalidInput)
	}
	if n > domain.MaxQuestionLen {
		return "", fmt.Errorf("%w: question exceeds %d characters", domain.ErrInvalidInput, domain.MaxQuestionLen)
	}
	return question, nil
}

// resolveSessionID validates the caller's session id or generates one.
func resolveSessionID(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return uuid.New().String(), nil
	}
	if utf8.RuneCountInString(sessionID) > domain.MaxSessionIDLen {
		return "", fmt.Errorf("%w: session id exceeds %d characters", domain.ErrInvalidInput, domain.MaxSessionIDLen)
	}
	return sessionID, nil
}

// contextSnippets returns the display snippets in retrieval rank order.
func contextSnippets(chunks []domain.RetrievedChunk) []string {
	snippets := make([]string, len(chunks))
	for i, c := range chunks {
		snippets[i] = c.Snippet()
	}
	return snippets
}

// distinctSources returns the distinct source labels in first-seen order.
func distinctSources(chunks []domain.RetrievedChunk) []string {
	seen := make(map[string]bool, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.Chunk.Source] {
			continue
		}
		seen[c.Chunk.Source] = true
		sources = append(sources, c.Chunk.Source)
	}
	return sources
}
