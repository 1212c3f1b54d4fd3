// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/broadcast"
	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end dependencies built in ConnectDB.
type DBDeps struct {
	// Audit database; all three are nil when mongo_uri is blank.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	AuditStore    *audit.Store

	AuditLog    *auditlog.Logger
	Records     *records.Store
	Broadcaster *broadcast.Broadcaster
	Fetcher     *csvutil.Fetcher
	Metrics     *metrics.Metrics

	// WebhookLimiter is nil when webhook_rate_limit is 0.
	WebhookLimiter *ratelimit.Limiter
}
