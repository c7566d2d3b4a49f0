// internal/app/bootstrap/run.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/logging"
	"go.uber.org/zap"
)

// shutdownGrace bounds how long in-flight requests get once ctx is done.
const shutdownGrace = 10 * time.Second

// Run executes the lifecycle in order: LoadConfig, ValidateConfig, ConnectDB,
// EnsureSchema, Startup, BuildHandler, then serves until ctx is cancelled and
// finishes with Shutdown.
func Run(ctx context.Context) error {
	// Config loading logs through a bootstrap logger until the configured
	// one exists.
	boot, err := logging.New("dev", "info")
	if err != nil {
		return fmt.Errorf("bootstrap logger: %w", err)
	}

	coreCfg, appCfg, err := LoadConfig(boot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(coreCfg.Env, appCfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	deps, err := ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = Shutdown(sctx, coreCfg, appCfg, deps, logger)
	}()

	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, logger); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	handler, cleanup, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", appCfg.HTTPAddr), zap.String("env", coreCfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
