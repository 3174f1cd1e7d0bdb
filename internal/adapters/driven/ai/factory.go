// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/lenden-labs/lenden/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/lenden-labs/lenden/internal/adapters/driven/embedding/openai"
	geminillm "github.com/lenden-labs/lenden/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/lenden-labs/lenden/internal/adapters/driven/llm/ollama"
	openaillm "github.com/lenden-labs/lenden/internal/adapters/driven/llm/openai"
	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when the provider is not configured; retrieval then
// runs in degraded mode.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateGenerationService creates a generation service and validates
// connectivity. The generation provider is mandatory: an unconfigured or
// unreachable provider is an error.
func CreateAndValidateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: no generation provider configured", domain.ErrGenerationUnavailable)
	}

	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrGenerationUnavailable, err)
	}

	return svc, nil
}

// ValidateIndexCompatibility checks that the vector index was built with the
// configured embedding model. Querying a mismatched index silently degrades
// answer quality, so a mismatch is a hard startup error.
func ValidateIndexCompatibility(embedder driven.EmbeddingService, index driven.VectorIndex) error {
	if embedder == nil || index == nil || index.Len() == 0 {
		return nil
	}

	if index.ModelName() != "" && index.ModelName() != embedder.ModelName() {
		return fmt.Errorf("%w: index built with %q, provider uses %q",
			domain.ErrIndexMismatch, index.ModelName(), embedder.ModelName())
	}
	if index.Dimensions() > 0 && embedder.Dimensions() > 0 && index.Dimensions() != embedder.Dimensions() {
		return fmt.Errorf("%w: index has %d dimensions, provider produces %d",
			domain.ErrIndexMismatch, index.Dimensions(), embedder.Dimensions())
	}
	return nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderGemini:
		// Gemini embedding support is not wired up; use openai or ollama.
		return nil, fmt.Errorf("gemini embeddings are not supported, use openai or ollama")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateGenerationService creates the appropriate generation service based on settings.
// Returns nil if the provider is not configured.
func CreateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewGenerationService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", settings.Provider)
	}
}
