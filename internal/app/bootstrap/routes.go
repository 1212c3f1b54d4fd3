// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditfeature "github.com/dalemusser/rosterhub/internal/app/features/audit"
	bulkuploadfeature "github.com/dalemusser/rosterhub/internal/app/features/bulkupload"
	dashboardfeature "github.com/dalemusser/rosterhub/internal/app/features/dashboard"
	employeesfeature "github.com/dalemusser/rosterhub/internal/app/features/employees"
	errorsfeature "github.com/dalemusser/rosterhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/rosterhub/internal/app/features/health"
	requestsfeature "github.com/dalemusser/rosterhub/internal/app/features/requests"
	webhookfeature "github.com/dalemusser/rosterhub/internal/app/features/webhook"
	"github.com/dalemusser/rosterhub/internal/app/system/bulk"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, backend construction and Startup.
// Every route answers JSON except the push streams and /metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	var auditDB healthfeature.Pinger
	if deps.AuditStore != nil {
		auditDB = deps.AuditStore
	}
	healthHandler := healthfeature.NewHandler(deps.Records.Tiers(), deps.Broadcaster, auditDB, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", deps.Metrics.Handler())

	// Employee records, with bulk uploads under the same prefix
	employeesHandler := employeesfeature.NewHandler(deps.Records, logger)
	employeesRouter := employeesfeature.Routes(employeesHandler)

	processor := bulk.NewProcessor(deps.Records, logger, deps.Metrics)
	bulkHandler := bulkuploadfeature.NewHandler(processor, deps.AuditLog, int64(appCfg.MaxUploadMB)<<20, logger)
	employeesRouter.Mount("/bulk", bulkuploadfeature.Routes(bulkHandler))
	r.Mount("/employees", employeesRouter)

	// Spreadsheet change ingress and push streams
	webhookHandler := webhookfeature.NewHandler(deps.Broadcaster, appCfg.WebhookSecretToken, deps.AuditLog, deps.Metrics, logger)
	webhookHandler.Limiter = deps.WebhookLimiter
	r.Mount("/webhook", webhookfeature.Routes(webhookHandler))
	if appCfg.WebhookSecretToken == "" {
		logger.Warn("webhook_secret_token not set; the ingress accepts unauthenticated calls")
	}

	// Audit trail, behind the same shared secret as the webhook
	var auditQuerier auditfeature.Querier
	if deps.AuditStore != nil {
		auditQuerier = deps.AuditStore
	}
	auditHandler := auditfeature.NewHandler(auditQuerier, appCfg.WebhookSecretToken, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler))

	// Read-only feeds
	requestsHandler := requestsfeature.NewHandler(deps.Fetcher, appCfg.RequestsCSVURL, logger)
	r.Mount("/requests", requestsfeature.Routes(requestsHandler))

	dashboardHandler := dashboardfeature.NewHandler(deps.Fetcher, appCfg.DashboardCSVURL, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	return r, nil
}
