package main

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/mhrezaei/telescribe/internal/config"
	"github.com/mhrezaei/telescribe/internal/database"
	"github.com/mhrezaei/telescribe/internal/logger"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "telescribe",
		Short:         "Archive Telegram group/channel messages with deduplicated storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to configuration file")

	root.AddCommand(newCrawlCmd())
	root.AddCommand(newMonitorCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newContactCmd())
	root.AddCommand(newExportCmd())
	return root
}

// env bundles the components every subcommand needs: validated config, the
// logger, and a migrated database with its store.
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *sqlx.DB
	store database.Store
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", cfg.Database.Path, err)
	}

	return &env{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: database.NewStore(db, log),
	}, nil
}

func (e *env) close() {
	database.CloseDB(e.db)
}
