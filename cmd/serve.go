package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/courtprior/internal/adapters/http/api"
	"github.com/okian/courtprior/internal/adapters/http/swagger"
	"github.com/okian/courtprior/internal/adapters/sqlstore"
	service "github.com/okian/courtprior/internal/app"
	"github.com/okian/courtprior/internal/config"
	"github.com/okian/courtprior/pkg/logger"
	"github.com/okian/courtprior/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var serveFlags struct {
	inputFlags
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve posteriors over HTTP",
	Long: "serve restores the latest archived run when a store is configured,\n" +
		"otherwise computes one from the configured inputs, and serves the\n" +
		"tables, leaderboards and player profiles as JSON.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	serveFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveFlags.addr
	}
	log := logger.Named("serve")

	svc, err := newService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := prime(ctx, svc, cfg, log); err != nil {
		return err
	}
	metrics.UpdateWorkerCount(cfg.WorkerCount)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// prime loads the tables served at startup: the archived run when one
// exists, else a fresh run over the configured inputs.
func prime(ctx context.Context, svc *service.Service, cfg *config.Config, log logger.Logger) error {
	err := svc.Restore(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNoArchive), errors.Is(err, sqlstore.ErrNoRuns):
		log.Debug(ctx, "nothing to restore", logger.Error(err))
	default:
		return fmt.Errorf("restore: %w", err)
	}

	if !hasInput(cfg) {
		log.Warn(ctx, "no archived run and no inputs configured; serving empty tables")
		return nil
	}
	in, err := service.ReadInputs(inputPaths(cfg))
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	if _, err := svc.Run(ctx, in); err != nil {
		return err
	}
	return nil
}

func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithLogger(logger.Named("api")),
	).Register(ctx, mux)
	return mux
}
