package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/mender"
	"github.com/aretw0/mender/internal/config"
	api "github.com/aretw0/mender/pkg/adapters/http"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/observability"
	"github.com/aretw0/mender/pkg/ports"
)

const shutdownTimeout = 5 * time.Second

// NewServer wires the HTTP API: manager, archive, metrics and per-run hooks.
// The returned cleanup closes the backend.
func NewServer(cfg config.Config, logger *slog.Logger) (*api.Server, func() error, error) {
	source, err := NewDelegateSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	metrics := observability.NewMetrics()
	build := Orchestrators(cfg, source, logger)

	factory := func(runID string, hooks domain.LifecycleHooks) ports.Orchestrator {
		return build(runID, observability.Combine(hooks, metrics.Hooks(), observability.LoggingHooks(logger)))
	}
	server := api.NewServer(newManager(backend, logger), factory,
		api.WithMetrics(metrics.Handler()),
		api.WithVersion(mender.Version),
		api.WithLogger(logger),
	)
	return server, backend.Close, nil
}

// Serve runs the HTTP API on cfg.HTTP.Addr until ctx is cancelled, then
// shuts down gracefully.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	server, cleanup, err := NewServer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "version", mender.Version)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	}
}
