package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediguard/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the audit schema to DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.AuditEnabled() {
				return errors.New("DATABASE_URL is not set")
			}

			ctx := context.Background()
			conn, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx, conn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Audit schema applied.")
			return nil
		},
	}
}
