package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/stow/internal/app"
	"github.com/kirinyoku/stow/internal/config"
	"github.com/kirinyoku/stow/internal/postgres"
)

func serveCmd(logger *slog.Logger) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, events subscriber and custody sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if migrateFirst {
				if err := postgres.Migrate(cfg.Postgres.DSN(), postgres.Up); err != nil {
					return err
				}
				logger.Info("migrations applied")
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}

			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")

	return cmd
}
