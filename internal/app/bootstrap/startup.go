// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after backends are built and before the handler is. It
// starts the subscriber heartbeat.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SSEHeartbeatInterval <= 0 {
		logger.Info("subscriber heartbeat disabled")
		return nil
	}
	deps.Broadcaster.Start(appCfg.SSEHeartbeatInterval)
	logger.Info("subscriber heartbeat started", zap.Duration("interval", appCfg.SSEHeartbeatInterval))
	return nil
}
