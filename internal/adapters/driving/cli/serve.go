package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lenden-labs/lenden/internal/adapters/driving/httpapi"
	"github.com/lenden-labs/lenden/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP server exposing the question-answering API.
The server runs until interrupted and drains in-flight requests on shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, then :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = appSettings.Server.Addr
	}

	srv := httpapi.NewServer(assistantService, httpapi.Config{
		Addr:  addr,
		Ready: retrievalReady,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Received %s, shutting down", sig)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	if conversationStore != nil {
		if err := conversationStore.Close(); err != nil {
			logger.Warn("Closing conversation store: %v", err)
		}
	}
	cmd.Println("Server stopped")
	return nil
}
