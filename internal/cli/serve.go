package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitrack/internal/backup"
	"github.com/dukerupert/habitrack/internal/metrics"
	"github.com/dukerupert/habitrack/internal/server"
	"github.com/dukerupert/habitrack/internal/tracker"
	"github.com/dukerupert/habitrack/internal/websocket"
)

const (
	shutdownTimeout      = 5 * time.Second
	limiterCleanupPeriod = 5 * time.Minute
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	cfg, logger, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	// The hub and metrics exist before the tracker so every committed change
	// is seen by both.
	hub := websocket.NewHub(logger.With("component", "websocket"))
	m := metrics.New()
	broadcast := server.BroadcastChanges(hub)
	onChange := func(c tracker.Change) {
		broadcast(c)
		m.ObserveChange(c)
	}

	a, err := openApp(ctx, cfg, logger, onChange)
	if err != nil {
		return err
	}
	defer a.Close()
	m.TrackGauges(a.tracker, hub.ClientCount)

	backupStatus := server.BroadcastBackupStatus(hub)
	mgr := backup.NewManager(backupConfig(a.cfg), a.backups, a.tracker, func(s backup.Status) {
		backupStatus(s)
		m.ObserveBackup(s)
	}, a.logger.With("component", "backup"))
	mgr.Start(ctx)
	defer mgr.Stop()

	proxies, err := a.cfg.Proxies()
	if err != nil {
		return err
	}
	srv := server.New(a.tracker, mgr, hub, server.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		TrustedProxies: proxies,
		Metrics:        m,
	}, a.logger)
	go srv.RateLimiter().RunCleanup(ctx, limiterCleanupPeriod)

	httpServer := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("habitrack listening", "addr", httpServer.Addr, "db", a.cfg.Database.Path, "backups", mgr.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
