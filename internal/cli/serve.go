package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kbrag/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ingest and chat HTTP API",
	Long: `Serve GET /health, POST /ingest and POST /chat.

A knowledge base persisted by an earlier ingestion is loaded on the first
question.

Examples:
  kbrag serve
  kbrag serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp(cfg, GetRootDir(), true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.ingest, a.chat, cfg.Server.AllowedOrigins)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
