// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the heartbeat, closes open push connections, and
// disconnects the audit database.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Broadcaster != nil {
		logger.Info("closing push subscribers", zap.Int("subscribers", deps.Broadcaster.Count()))
		deps.Broadcaster.Close()
	}
	if deps.WebhookLimiter != nil {
		deps.WebhookLimiter.Close()
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting audit MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
