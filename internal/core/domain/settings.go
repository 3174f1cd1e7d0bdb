package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// EmbeddingDimensions returns the known vector sizes per embedding model.
// Models not listed fall back to adapter defaults.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		"nomic-embed-text":       768,
		"all-minilm":             384,
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name. It must match the model the
	// vector index was built with.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Timeout bounds a single embedding call.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds generation provider configuration.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the chat/completion model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds retrieval behaviour configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MaxK bounds the k a caller may request.
	MaxK int

	// IndexPath is the location of the pre-built vector index artifact.
	IndexPath string

	// EmbedTimeout bounds a single query embedding call.
	EmbedTimeout time.Duration

	// SearchTimeout bounds a single index search.
	SearchTimeout time.Duration
}

// EmbedTimeoutOrDefault returns the embed timeout, defaulting to 30s.
func (r RetrievalSettings) EmbedTimeoutOrDefault() time.Duration {
	if r.EmbedTimeout > 0 {
		return r.EmbedTimeout
	}
	return 30 * time.Second
}

// SearchTimeoutOrDefault returns the search timeout, defaulting to 10s.
func (r RetrievalSettings) SearchTimeoutOrDefault() time.Duration {
	if r.SearchTimeout > 0 {
		return r.SearchTimeout
	}
	return 10 * time.Second
}

// HistorySettings holds conversation history configuration.
type HistorySettings struct {
	// Window is the number of recent turns fed into prompt assembly.
	// Older turns stay in storage but are excluded from the prompt.
	Window int

	// DataDir is the directory holding the conversation database.
	DataDir string
}

// ServerSettings holds HTTP transport configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// Validation limits for incoming questions and session identifiers.
const (
	// MinQuestionLen is the minimum question length in runes.
	MinQuestionLen = 3

	// MaxQuestionLen is the maximum question length in runes.
	MaxQuestionLen = 500

	// MaxSessionIDLen is the maximum session identifier length.
	MaxSessionIDLen = 100
)

// Settings holds all application settings.
type Settings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Generation holds generation provider settings.
	Generation GenerationSettings

	// Retrieval holds retrieval behaviour settings.
	Retrieval RetrievalSettings

	// History holds conversation history settings.
	History HistorySettings

	// Server holds HTTP transport settings.
	Server ServerSettings
}

// DefaultSettings returns settings with documented defaults.
// Provider credentials are left unconfigured; they come from the
// config file or environment.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Timeout: 30 * time.Second,
		},
		Generation: GenerationSettings{
			Temperature: 0.2,
			Timeout:     120 * time.Second,
		},
		Retrieval: RetrievalSettings{
			TopK:          5,
			MaxK:          20,
			EmbedTimeout:  30 * time.Second,
			SearchTimeout: 10 * time.Second,
		},
		History: HistorySettings{
			Window: 3,
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}
