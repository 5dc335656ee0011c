package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mediguard/internal/config"
	"mediguard/internal/core"
	"mediguard/internal/llm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mediguard",
		Short:         "Symptom triage companion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger writes JSON to w, or coloured console output in development.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// loadConfig reads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newCompletionClient builds the backend named by LLM_PROVIDER.
func newCompletionClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
		}), nil
	case config.ProviderVertex:
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			Project:   cfg.GCPProject,
			Location:  cfg.GCPLocation,
			Model:     vertexModel(cfg.LLMModel),
			MaxTokens: cfg.LLMMaxTokens,
		})
	case config.ProviderScripted:
		return llm.NewScripted(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// vertexModel drops the OpenAI default so the Vertex client picks its own.
func vertexModel(model string) string {
	if model == config.DefaultModel {
		return ""
	}
	return model
}

// newTriageService wires the pipeline with the configured cap and timeout.
func newTriageService(client llm.Client, cfg *config.Config, logger zerolog.Logger) *core.TriageService {
	svc := core.NewTriageService(client, logger)
	svc.MessageCap = cfg.MessageCap
	svc.Timeout = cfg.LLMTimeout
	return svc
}
