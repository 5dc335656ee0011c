package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediguard/internal/db"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print red-flag escalations as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.AuditEnabled() {
				return errors.New("DATABASE_URL is not set")
			}
			logger := newLogger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Listen opens its own connection; no pool is needed here.
			notifier := db.NewNotifier(nil, cfg.NotifyChannel, logger)
			notices, err := notifier.Listen(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("listen on %q: %w", cfg.NotifyChannel, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %q for escalations. Ctrl-C to stop.\n", cfg.NotifyChannel)
			for n := range notices {
				fmt.Fprintf(out, "%s  session=%s  rule=%s\n    %s\n",
					n.At.Local().Format("15:04:05"), n.SessionID, n.Rule, n.Action)
			}
			return nil
		},
	}
}
