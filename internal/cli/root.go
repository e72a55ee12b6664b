package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitrack/internal/config"
	"github.com/dukerupert/habitrack/internal/database"
	"github.com/dukerupert/habitrack/internal/logging"
	"github.com/dukerupert/habitrack/internal/model"
	"github.com/dukerupert/habitrack/internal/store"
	"github.com/dukerupert/habitrack/internal/tracker"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	getenv func(string) string
}

// NewRootCommand creates the habitrack command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Getenv)
}

func newRootCommand(getenv func(string) string) *cobra.Command {
	opts := &RootOptions{getenv: getenv}

	cmd := &cobra.Command{
		Use:           "habitrack",
		Short:         "Daily habit tracker",
		Long:          "Track daily sub-habits for smoking, eating and exercise, with streaks, badges and encrypted backups.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))

	return cmd
}

// loadConfig reads config and applies flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.getenv)
	if err != nil {
		return config.Config{}, err
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	return cfg, nil
}

// app is the wired core shared by every command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	tracker *tracker.Service
	backups *store.BackupStore
}

// setup loads config and installs the logger, which writes to stderr.
func (o *RootOptions) setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()), nil
}

// open is setup plus openApp for commands that need no change callback.
func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := o.setup(cmd)
	if err != nil {
		return nil, err
	}
	return openApp(ctx, cfg, logger, nil)
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, onChange tracker.ChangeCallback) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.OpenContext(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	svc, err := tracker.New(tracker.Config{
		Catalog:     cfg.HabitCatalog(),
		StreakLimit: cfg.Tracker.StreakLimit,
		Location:    loc,
	}, store.NewStateStore(db, logger.With("component", "state")), onChange, logger.With("component", "tracker"))
	if err != nil {
		db.Close()
		return nil, err
	}
	svc.Load(ctx)

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		tracker: svc,
		backups: store.NewBackupStore(db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// dateArg resolves a --date flag value. Empty means today.
func (a *app) dateArg(s string) (model.Date, error) {
	if s == "" || s == "today" {
		return a.tracker.Today(), nil
	}
	return model.ParseDate(s)
}
