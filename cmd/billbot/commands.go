package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/billbot/core/buildinfo"
	corecmd "github.com/m3rciful/billbot/core/cmd"
	coreconfig "github.com/m3rciful/billbot/core/config"
	coredatabase "github.com/m3rciful/billbot/core/database"
	"github.com/m3rciful/billbot/core/logger"
	"github.com/m3rciful/billbot/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configFlag(cmd),
				ConfigEnvVar:      corecmd.DefaultConfigEnvVar,
				DefaultConfigPath: defaultConfigPath,
				Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
					return app.Build(ctx, cfg)
				},
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply journal schema migrations to postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := corecmd.ResolveConfigPath(configFlag(cmd), corecmd.DefaultConfigEnvVar, defaultConfigPath)
			if err != nil {
				return err
			}
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return err
			}
			if cfg.Journal.Backend != coreconfig.JournalPostgres {
				return fmt.Errorf("journal.backend is %q; migrations only apply to postgres", cfg.Journal.Backend)
			}
			if err := logger.InitLogger(cfg); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := coredatabase.WaitForPostgres(ctx, coredatabase.DSN(cfg.Database), timeout); err != nil {
				return err
			}
			return coredatabase.RunMigrations(ctx, cfg.Database)
		},
	}
	cmd.Flags().DurationVar(&timeout, "wait", 30*time.Second, "How long to wait for postgres to accept connections.")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			date := buildinfo.Date
			if date == "" {
				date = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "billbot %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, date)
		},
	}
}
