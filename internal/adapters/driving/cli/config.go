package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lenden-labs/lenden/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application configuration",
	Long: `View and edit the configuration file.

Keys use dot notation, e.g. generation.model or retrieval.top_k.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately.
Values that parse as integers, floats or booleans are stored typed;
everything else is stored as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfig sets up the config store without touching providers, so
// config commands work before any API key is configured.
func initConfig() error {
	if configStore != nil {
		return nil
	}
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initialise config store: %w", err)
	}
	configStore = cfg
	appSettings = loadSettings(cfg)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", appSettings.Embedding.Provider.Description())
	if appSettings.Embedding.Model != "" {
		cmd.Printf("  Model:    %s\n", appSettings.Embedding.Model)
	}
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Provider:    %s\n", appSettings.Generation.Provider.Description())
	if appSettings.Generation.Model != "" {
		cmd.Printf("  Model:       %s\n", appSettings.Generation.Model)
	}
	cmd.Printf("  Temperature: %.2f\n", appSettings.Generation.Temperature)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K:      %d\n", appSettings.Retrieval.TopK)
	cmd.Printf("  Index path: %s\n", appSettings.Retrieval.IndexPath)
	cmd.Println()

	cmd.Println("[History]")
	cmd.Printf("  Window: %d turns\n", appSettings.History.Window)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", appSettings.Server.Addr)
	cmd.Println()

	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key not set: %s", args[0])
	}
	cmd.Printf("%v\n", val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, raw)
	return nil
}

// parseValue stores the most specific type the raw string parses as.
func parseValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
