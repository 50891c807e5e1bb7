package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/kirinyoku/stow/docs"
)

// @title Stow API
// @version 1.0
// @description Booking, pricing and custody for shared storage and parking spaces.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:          "stow",
		Short:        "Stow booking, pricing and custody service",
		SilenceUsage: true,
	}

	serve := serveCmd(logger)
	root.AddCommand(serve, migrateCmd(logger), quoteCmd())

	// Running the binary without a subcommand serves.
	root.RunE = serve.RunE

	if err := root.Execute(); err != nil {
		logger.Error("stow finished with error", "error", err)
		os.Exit(1)
	}
}
