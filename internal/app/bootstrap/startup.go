// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.UpstreamTimeout > 0 {
		timeouts.Configure(timeouts.Config{Upstream: appCfg.UpstreamTimeout})
	}
	// SYNAPSE_TIMEOUT_* overrides win over the config file.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	c := timeouts.Current()
	logger.Debug("timeouts",
		zap.Duration("ping", c.Ping),
		zap.Duration("medium", c.Medium),
		zap.Duration("upstream", c.Upstream),
		zap.Duration("delivery", c.Delivery))
	return nil
}
