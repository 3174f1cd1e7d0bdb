package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear-history [session-id]",
	Short: "Clear a session's conversation history",
	Long: `Removes every stored turn for the given session. Clearing a
session that has no history succeeds silently.`,
	Args: cobra.ExactArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	sessionID := args[0]
	if err := assistantService.ClearHistory(context.Background(), sessionID); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	cmd.Printf("Cleared history for session %s\n", sessionID)
	return nil
}
