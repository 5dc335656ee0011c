package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mediguard/internal/config"
	"mediguard/internal/core"
	"mediguard/internal/db"
	httpserver "mediguard/internal/http"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the triage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()
	client, err := newCompletionClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build completion client")
	}
	triage := newTriageService(client, cfg, logger)

	// The audit sink is optional; sessions never touch the database.
	var events httpserver.EventSource
	if cfg.AuditEnabled() {
		conn, eventLog, err := openAuditLog(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to set up audit log")
		}
		defer conn.Close()
		triage.Recorder = eventLog
		events = eventLog
		logger.Info().Str("channel", cfg.NotifyChannel).Msg("audit log enabled")
	}

	srv := httpserver.NewServer(core.NewRegistry(), triage, events, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().
			Str("addr", addr).
			Str("provider", cfg.LLMProvider).
			Int("message_cap", cfg.MessageCap).
			Msg("starting server")
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// openAuditLog connects, applies the schema and returns the event log.
func openAuditLog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sql.DB, *db.EventLog, error) {
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	notifier := db.NewNotifier(conn, cfg.NotifyChannel, logger)
	return conn, db.NewEventLog(conn, notifier), nil
}
