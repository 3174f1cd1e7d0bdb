// Package cli implements the lenden command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lenden-labs/lenden/internal/adapters/driven/ai"
	"github.com/lenden-labs/lenden/internal/adapters/driven/config/file"
	"github.com/lenden-labs/lenden/internal/adapters/driven/storage/sqlite"
	"github.com/lenden-labs/lenden/internal/adapters/driven/vectorindex/flatfile"
	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driven"
	"github.com/lenden-labs/lenden/internal/core/ports/driving"
	"github.com/lenden-labs/lenden/internal/core/services"
	"github.com/lenden-labs/lenden/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services shared by the commands. Populated by initServices before a
// command that needs them runs.
var (
	assistantService  driving.AssistantService
	conversationStore driven.ConversationStore
	configStore       driven.ConfigStore
	appSettings       domain.Settings
	retrievalReady    bool
)

var rootCmd = &cobra.Command{
	Use:   "lenden",
	Short: "Contextual retrieval and conversation engine",
	Long: `Lenden answers questions grounded in a pre-built document index.
Each question is embedded, matched against the index, and answered by an
LLM with the retrieved passages and recent conversation history in the
prompt.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command with the given version string.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

// initServices wires the adapters into the core services. Commands that
// talk to providers call this from their RunE.
func initServices() error {
	if assistantService != nil {
		return nil
	}

	// .env is optional; environment variables win over the config file.
	_ = godotenv.Load()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initialise config store: %w", err)
	}
	configStore = cfg
	appSettings = loadSettings(cfg)

	logger.Section("Initialising services")

	index, err := flatfile.Load(appSettings.Retrieval.IndexPath)
	if err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	logger.Info("Vector index: %d chunks (%s)", index.Len(), appSettings.Retrieval.IndexPath)

	embedder, err := ai.CreateAndValidateEmbeddingService(&appSettings.Embedding)
	if err != nil {
		// Retrieval degrades; the assistant still answers from history.
		logger.Warn("Embedding provider unavailable, retrieval disabled: %v", err)
		embedder = nil
	}
	if embedder == nil {
		logger.Warn("No embedding provider configured, running without retrieval")
	}

	if err := ai.ValidateIndexCompatibility(embedder, index); err != nil {
		return err
	}

	generator, err := ai.CreateAndValidateGenerationService(&appSettings.Generation)
	if err != nil {
		return err
	}
	logger.Info("Generation provider: %s (%s)", appSettings.Generation.Provider, appSettings.Generation.Model)

	store, err := sqlite.NewStore(appSettings.History.DataDir)
	if err != nil {
		return fmt.Errorf("open conversation store: %w", err)
	}
	conversationStore = store

	retriever := services.NewRetriever(embedder, index, appSettings.Retrieval)
	assistant := services.NewAssistantService(store, retriever, generator, appSettings)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("Prompt store unavailable, using embedded defaults: %v", err)
	} else {
		assistant.SetPromptStore(prompts)
	}

	assistantService = assistant
	retrievalReady = embedder != nil && index.Len() > 0
	return nil
}

// loadSettings builds the runtime settings from defaults, the config
// file, and the environment, in increasing order of precedence.
func loadSettings(cfg driven.ConfigStore) domain.Settings {
	s := domain.DefaultSettings()

	s.Embedding.Provider = domain.AIProvider(cfg.GetString("embedding.provider"))
	s.Embedding.Model = cfg.GetString("embedding.model")
	s.Embedding.BaseURL = cfg.GetString("embedding.base_url")

	s.Generation.Provider = domain.AIProvider(cfg.GetString("generation.provider"))
	s.Generation.Model = cfg.GetString("generation.model")
	s.Generation.BaseURL = cfg.GetString("generation.base_url")
	if t := cfg.GetFloat("generation.temperature"); t > 0 {
		s.Generation.Temperature = t
	}

	if k := cfg.GetInt("retrieval.top_k"); k > 0 {
		s.Retrieval.TopK = k
	}
	if k := cfg.GetInt("retrieval.max_k"); k > 0 {
		s.Retrieval.MaxK = k
	}
	s.Retrieval.IndexPath = cfg.GetString("retrieval.index_path")

	if w := cfg.GetInt("history.window"); w > 0 {
		s.History.Window = w
	}
	s.History.DataDir = cfg.GetString("history.data_dir")

	if addr := cfg.GetString("server.addr"); addr != "" {
		s.Server.Addr = addr
	}

	if s.Generation.Provider == "" {
		s.Generation.Provider = domain.AIProviderGemini
	}
	if s.Embedding.Provider == "" {
		s.Embedding.Provider = domain.AIProviderOpenAI
	}
	if s.Retrieval.IndexPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.Retrieval.IndexPath = filepath.Join(home, ".lenden", "data", "index.json")
		}
	}

	s.Embedding.APIKey = apiKeyFor(s.Embedding.Provider)
	s.Generation.APIKey = apiKeyFor(s.Generation.Provider)

	return s
}

// apiKeyFor resolves the API key for a provider from the environment.
func apiKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderGemini:
		return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	case domain.AIProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	default:
		return ""
	}
}
