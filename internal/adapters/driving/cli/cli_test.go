package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// stubAssistant satisfies driving.AssistantService for command tests.
type stubAssistant struct {
	answer   *domain.Answer
	askErr   error
	clearErr error

	lastQuestion  string
	lastSessionID string
}

func (s *stubAssistant) Ask(_ context.Context, question, sessionID string) (*domain.Answer, error) {
	s.lastQuestion = question
	s.lastSessionID = sessionID
	if s.askErr != nil {
		return nil, s.askErr
	}
	return s.answer, nil
}

func (s *stubAssistant) ClearHistory(_ context.Context, sessionID string) error {
	s.lastSessionID = sessionID
	return s.clearErr
}

// setupTestServices injects a stub assistant so commands run without
// providers. Returns the stub and a cleanup function.
func setupTestServices() (*stubAssistant, func()) {
	stub := &stubAssistant{
		answer: &domain.Answer{
			Text:      "The minimum down payment is 10%.",
			Sources:   []string{"HomeLoanPolicy.pdf"},
			SessionID: "sess-1",
		},
	}
	original := assistantService
	assistantService = stub
	return stub, func() {
		assistantService = original
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := executeCommand(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "lenden version test-version-1.0.0")
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "ask")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_HasSessionFlag(t *testing.T) {
	flag := askCmd.Flags().Lookup("session")
	require.NotNil(t, flag, "session flag should exist")
	assert.Equal(t, "s", flag.Shorthand)
}

func TestAskCmd_Executes(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "ask", "What is the minimum down payment?", "--session", "sess-1")
	defer func() { askSessionID = "" }()

	require.NoError(t, err)
	assert.Equal(t, "What is the minimum down payment?", stub.lastQuestion)
	assert.Equal(t, "sess-1", stub.lastSessionID)
	assert.Contains(t, out, "The minimum down payment is 10%.")
	assert.Contains(t, out, "HomeLoanPolicy.pdf")
	assert.Contains(t, out, "Session: sess-1")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "ask", "What is the minimum down payment?", "--json")
	defer func() { askJSON = false }()

	require.NoError(t, err)
	assert.Contains(t, out, `"The minimum down payment is 10%."`)
}

func TestAskCmd_PropagatesError(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.askErr = domain.ErrInvalidInput

	_, err := executeCommand(t, "ask", "x")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskCmd_DegradedNotice(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.answer = &domain.Answer{
		Text:      "I could not consult the documents.",
		SessionID: "sess-1",
		Degraded:  true,
	}

	out, err := executeCommand(t, "ask", "anything at all")

	require.NoError(t, err)
	assert.Contains(t, out, "retrieval unavailable")
}

func TestClearCmd_Use(t *testing.T) {
	assert.Equal(t, "clear-history [session-id]", clearCmd.Use)
}

func TestClearCmd_Executes(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "clear-history", "sess-1")

	require.NoError(t, err)
	assert.Equal(t, "sess-1", stub.lastSessionID)
	assert.Contains(t, out, "Cleared history for session sess-1")
}

func TestClearCmd_PropagatesError(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.clearErr = domain.ErrInvalidInput

	_, err := executeCommand(t, "clear-history", "sess-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"5", int64(5)},
		{"0.2", 0.2},
		{"true", true},
		{"false", false},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
		{":8000", ":8000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.raw), "raw=%q", tt.raw)
	}
}

func TestApiKeyFor(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " gem-key ")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	assert.Equal(t, "gem-key", apiKeyFor(domain.AIProviderGemini))
	assert.Equal(t, "oa-key", apiKeyFor(domain.AIProviderOpenAI))
	assert.Equal(t, "", apiKeyFor(domain.AIProviderOllama))
}
