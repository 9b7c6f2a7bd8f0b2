package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/presence-chat/internal/app"
	"github.com/vovakirdan/presence-chat/internal/config"
	applog "github.com/vovakirdan/presence-chat/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "presence-server",
		Short:         "Real-time presence chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := applog.New("info")

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Msg("failed to load config")
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := applog.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("configuration loaded")

			if logger.GetLevel() > zerolog.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to build application")
				return err
			}

			logger.Info().Msg("starting presence server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.yaml")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	cmd.SetContext(context.Background())
	return cmd
}
