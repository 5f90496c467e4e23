package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dumpmerge/internal/core"
	"github.com/JonMunkholm/dumpmerge/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalizer over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("configuration loaded", "config", cfg.String())

	limiter := core.NewRunLimiter(cfg.Server.MaxConcurrentRuns, cfg.Server.MaxWaitTime)
	service, err := newService(cfg, 0, limiter)
	if err != nil {
		return err
	}

	dir := cfg.Output.Dir
	if dir == "" {
		dir = "output"
	}
	store, remote, err := newStore(cfg, dir)
	if err != nil {
		return err
	}
	slog.Info("formats registered", "count", core.FormatCount(), "object_storage", remote)

	server := web.NewServer(cfg, service, store)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := limiter.Status(); status.Active > 0 {
		slog.Info("waiting for runs to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
