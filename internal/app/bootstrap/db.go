// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/broadcast"
	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/app/system/ratelimit"
	"github.com/dalemusser/rosterhub/internal/app/system/sheetsapi"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB builds every backend the handlers need: the optional audit
// database, the record store with its fallback chain, and the broadcaster.
//
// Only a configured but unreachable audit database is fatal. Missing sheet
// credentials or export URLs are logged and leave that tier unconfigured.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	deps := DBDeps{Metrics: metrics.New()}

	if appCfg.MongoURI != "" {
		client, err := connectMongo(ctx, appCfg.MongoURI)
		if err != nil {
			logger.Error("audit database connection failed", zap.Error(err))
			return DBDeps{}, err
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		deps.AuditStore = audit.New(deps.MongoDatabase)
		logger.Info("audit database connected", zap.String("database", appCfg.MongoDatabase))
	} else {
		logger.Info("mongo_uri not set; audit events go to the log only")
	}
	deps.AuditLog = auditlog.New(deps.AuditStore, logger, auditlog.Uniform(appCfg.AuditLog))

	deps.Fetcher = csvutil.NewFetcher(nil)
	deps.Records = records.New(buildChain(ctx, appCfg, deps.Fetcher, deps.Metrics, logger), logger, deps.AuditLog)
	deps.Broadcaster = broadcast.New(logger, deps.Metrics)
	if appCfg.WebhookRateLimit > 0 {
		deps.WebhookLimiter = ratelimit.New(appCfg.WebhookRateLimit, time.Minute)
	}

	for _, t := range deps.Records.Tiers() {
		logger.Info("record backend", zap.String("tier", t.Name), zap.Bool("configured", t.Configured))
	}
	return deps, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// buildChain assembles the record strategies in fallback order:
// authenticated API, published CSV export, echo.
func buildChain(ctx context.Context, appCfg AppConfig, fetcher *csvutil.Fetcher, m *metrics.Metrics, logger *zap.Logger) *records.Chain {
	var values records.ValuesClient
	creds := sheetsapi.Credentials{Email: appCfg.GoogleServiceAccountEmail, PrivateKey: appCfg.GooglePrivateKey}
	client, err := sheetsapi.New(ctx, creds, appCfg.SpreadsheetID)
	switch {
	case err == nil:
		values = client
	case errors.Is(err, sheetsapi.ErrNotConfigured):
		logger.Info("sheets service account not configured; writes will be simulated", zap.Error(err))
	default:
		logger.Warn("sheets client init failed; writes will be simulated", zap.Error(err))
	}

	exportURL := appCfg.EmployeesCSVURL
	editURL := ""
	if appCfg.SpreadsheetID != "" {
		if exportURL == "" {
			exportURL = csvutil.GvizURL(appCfg.SpreadsheetID, appCfg.SheetGID)
		}
		editURL = csvutil.EditURL(appCfg.SpreadsheetID, appCfg.SheetGID)
	}

	return records.NewChain(logger, m,
		records.NewAPIStrategy(values, appCfg.SheetTab, logger),
		records.NewCSVStrategy(fetcher, exportURL, editURL, logger),
		records.NewEchoStrategy(logger),
	)
}

// EnsureSchema creates the audit indexes when the audit database is enabled.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.AuditStore == nil {
		return nil
	}
	ictx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := deps.AuditStore.EnsureIndexes(ictx); err != nil {
		logger.Error("audit index creation failed", zap.Error(err))
		return err
	}
	return nil
}
