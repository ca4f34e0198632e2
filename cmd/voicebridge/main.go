// Command voicebridge answers incoming phone calls and bridges their media
// streams to a realtime speech model running the order conversation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ermissa/adastra-basic-ai-assistant/internal/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/ermissa/adastra-basic-ai-assistant/cmd/voicebridge"

var logger = otelslog.NewLogger(scopeName)

func run(ctx context.Context, cfg *config.Config) error {
	bridge, err := newBridge(ctx, cfg)
	if err != nil {
		return err
	}
	defer bridge.close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           bridge.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listenErr := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
			return
		}
		listenErr <- nil
	}()
	logger.InfoContext(ctx, "voice bridge listening", "addr", cfg.HTTPAddr, "public_host", cfg.PublicHost)

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	bridge.endCalls(shutdownCtx)

	return <-listenErr
}

func runMain(ctx context.Context, stderr io.Writer) int {
	shutdownTelemetry, err := setupTelemetry(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "voicebridge: %v\n", err)
		return 1
	}
	defer shutdownTelemetry(context.Background())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "voicebridge: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(stderr, "voicebridge: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr))
}
