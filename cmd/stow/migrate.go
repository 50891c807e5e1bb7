package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/stow/internal/config"
	"github.com/kirinyoku/stow/internal/postgres"
)

func migrateCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			dir := postgres.Direction(args[0])
			if err := postgres.Migrate(cfg.Postgres.DSN(), dir); err != nil {
				return err
			}

			logger.Info("migrations done", "direction", dir)
			return nil
		},
	}

	return cmd
}
