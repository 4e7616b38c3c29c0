package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/testloom/testloom/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the test generation HTTP service",
	Long: `Serve exposes the generation pipeline over HTTP:

  POST /generate     generate a test class for one source file
  GET  /health       backend liveness and cache statistics
  POST /clear-cache  drop every cached result

Configuration is read from .testloom/config.yml with TESTLOOM_* environment
variable overrides.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gen, gateway, cache, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(gen, gateway, cache)
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
