package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tony0935929660/match-platform-web-sub000/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "matchctl",
		Short:         "Session client for the match platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default .env when present)")

	cmd.AddCommand(newLoginCommand())
	cmd.AddCommand(newLogoutCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newTokenCommand())
	cmd.AddCommand(newMeCommand())
	return cmd
}

// loadConfig reads configuration and installs the logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	return cfg, nil
}
