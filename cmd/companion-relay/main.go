// Command companion-relay serves /api/chat for the companion client and
// forwards conversations to Gemini or Groq.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/llms/gemini"
	"github.com/koscakluka/ema-companion/core/llms/groq"
	"github.com/koscakluka/ema-companion/internal/config"
	"github.com/koscakluka/ema-companion/internal/relay"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log); err != nil {
		log.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upstream, err := newUpstream(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []relay.ServerOption{
		relay.WithProvider(cfg.Provider),
		relay.WithRequestTimeout(cfg.RequestTimeout),
	}
	if cfg.MetricsEnabled {
		opts = append(opts, relay.WithMetrics(relay.NewMetrics("")))
	}
	server := relay.New(upstream, opts...)

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start(":" + cfg.Port)
	}()
	log.Info("relay started", "port", cfg.Port, "provider", cfg.Provider, "metrics", cfg.MetricsEnabled)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("relay shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newUpstream(ctx context.Context, cfg *config.RelayConfig) (llms.ResponseStreamer, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		return groq.NewClient(cfg.GroqAPIKey, groq.WithModel(cfg.GroqModel)), nil
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	}
}
