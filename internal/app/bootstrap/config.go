// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for RosterHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: spreadsheet_id, webhook_secret_token, etc.
//   - Environment variables: ROSTERHUB_SPREADSHEET_ID, ROSTERHUB_WEBHOOK_SECRET_TOKEN, etc.
//   - Command-line flags: --spreadsheet_id, --webhook_secret_token, etc.
var appConfigKeys = []config.AppKey{
	// Google service account
	{Name: "google_service_account_email", Default: "", Desc: "Service account email for the Sheets API"},
	{Name: "google_private_key", Default: "", Desc: "Service account private key (PEM; \\n escapes allowed)"},
	{Name: "spreadsheet_id", Default: "", Desc: "Employee spreadsheet ID"},
	{Name: "sheet_gid", Default: "0", Desc: "Employee tab gid for CSV export and edit links"},
	{Name: "sheet_tab", Default: "", Desc: "Employee tab name (blank means the first tab)"},

	// Published CSV exports
	{Name: "employees_csv_url", Default: "", Desc: "Published CSV export of the employee tab (blank derives it from spreadsheet_id)"},
	{Name: "requests_csv_url", Default: "", Desc: "Published CSV export of the requests sheet"},
	{Name: "dashboard_csv_url", Default: "", Desc: "Published CSV export of the dashboard sheet"},

	// Webhook and push notifications
	{Name: "webhook_secret_token", Default: "", Desc: "Shared secret expected in X-Secret-Token (blank disables the check)"},
	{Name: "webhook_rate_limit", Default: 120, Desc: "Webhook POSTs allowed per client IP per minute (0 disables)"},
	{Name: "sse_heartbeat_interval", Default: "60s", Desc: "Heartbeat interval for push subscribers (0 disables)"},

	// Audit trail
	{Name: "mongo_uri", Default: "", Desc: "MongoDB URI for the audit trail (blank disables it)"},
	{Name: "mongo_database", Default: "rosterhub", Desc: "MongoDB database name"},
	{Name: "audit_log", Default: "all", Desc: "Audit destination: 'all' (db+log), 'db', 'log', or 'off'"},

	// Bulk uploads
	{Name: "max_upload_mb", Default: 5, Desc: "Maximum bulk upload size in megabytes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROSTERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		GoogleServiceAccountEmail: appValues.String("google_service_account_email"),
		GooglePrivateKey:          appValues.String("google_private_key"),
		SpreadsheetID:             appValues.String("spreadsheet_id"),
		SheetGID:                  appValues.String("sheet_gid"),
		SheetTab:                  appValues.String("sheet_tab"),

		EmployeesCSVURL: appValues.String("employees_csv_url"),
		RequestsCSVURL:  appValues.String("requests_csv_url"),
		DashboardCSVURL: appValues.String("dashboard_csv_url"),

		WebhookSecretToken:   appValues.String("webhook_secret_token"),
		WebhookRateLimit:     appValues.Int("webhook_rate_limit"),
		SSEHeartbeatInterval: appValues.Duration("sse_heartbeat_interval", 60*time.Second),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		AuditLog:      appValues.String("audit_log"),

		MaxUploadMB: appValues.Int("max_upload_mb"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Absent values are fine; malformed ones abort startup so a typo does not
// silently drop the service to a lower fallback tier.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	for name, raw := range map[string]string{
		"employees_csv_url": appCfg.EmployeesCSVURL,
		"requests_csv_url":  appCfg.RequestsCSVURL,
		"dashboard_csv_url": appCfg.DashboardCSVURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if !auditlog.ValidMode(appCfg.AuditLog) {
		return fmt.Errorf("invalid audit_log %q: want all, db, log or off", appCfg.AuditLog)
	}
	if appCfg.SSEHeartbeatInterval < 0 {
		return fmt.Errorf("sse_heartbeat_interval must not be negative")
	}
	if appCfg.WebhookRateLimit < 0 {
		return fmt.Errorf("webhook_rate_limit must not be negative")
	}
	if appCfg.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must not be negative")
	}
	return nil
}

// validateURL accepts "" or an absolute http(s) URL.
func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
