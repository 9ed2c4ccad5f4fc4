package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/socialchat-server/internal/app"
	"github.com/vovakirdan/socialchat-server/internal/config"
	applog "github.com/vovakirdan/socialchat-server/internal/log"
)

var (
	configPath string
	overrides  config.Config
)

var rootCmd = &cobra.Command{
	Use:          "socialchat-server",
	Short:        "Real-time presence and messaging server",
	Long:         "Serve authenticated WebSocket sessions with friend presence, private and group messaging, typing signals and friend requests.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		bootLog := applog.New(overrides.LogLevel, "console")

		cfg, path, err := config.Load(bootLog, configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.UpdateFrom(overrides)

		logger := applog.New(cfg.LogLevel, cfg.LogFormat)
		logger.Info().Str("config", path).Msg("configuration loaded")

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().Str("addr", cfg.Addr).Msg("starting socialchat server")
		if err := application.Run(ctx); err != nil {
			return fmt.Errorf("server exited with error: %w", err)
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
