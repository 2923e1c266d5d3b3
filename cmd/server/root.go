package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatline-server/internal/config"
	applog "github.com/vovakirdan/chatline-server/internal/log"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chatline",
		Short:         "Chat message server with realtime broadcast",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is normal outside development.
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml (default ./config.yaml)")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.overrides.LogFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&opts.overrides.Store.Driver, "store-driver", "", "store driver (sqlite, badger, postgres)")
	flags.StringVar(&opts.overrides.Store.SQLitePath, "sqlite-path", "", "SQLite database file")
	flags.StringVar(&opts.overrides.Store.BadgerDir, "badger-dir", "", "Badger data directory")
	flags.StringVar(&opts.overrides.Store.PostgresURL, "postgres-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMessagesCmd(opts))
	return cmd
}

// loadConfig resolves configuration with flag overrides applied last.
func loadConfig(opts *rootOptions) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New("info")

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, bootLogger, err
	}
	cfg.UpdateFrom(opts.overrides)

	logger := applog.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}
