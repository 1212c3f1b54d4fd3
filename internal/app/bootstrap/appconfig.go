// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (ROSTERHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything below is RosterHub's own.
//
// None of the backends is mandatory. Missing credentials or URLs move the
// record store down its fallback chain instead of failing startup.
type AppConfig struct {
	// Authenticated Sheets access (service account)
	GoogleServiceAccountEmail string
	GooglePrivateKey          string // literal "\n" sequences are accepted
	SpreadsheetID             string
	SheetGID                  string // tab id used for CSV export and edit links
	SheetTab                  string // tab name prefixed to A1 ranges; blank means first tab

	// Published CSV exports
	EmployeesCSVURL string // blank derives the gviz export from SpreadsheetID
	RequestsCSVURL  string
	DashboardCSVURL string

	// Webhook and push
	WebhookSecretToken   string
	WebhookRateLimit     int // POSTs per client IP per minute; 0 disables
	SSEHeartbeatInterval time.Duration

	// Audit trail
	MongoURI      string // blank disables the audit database
	MongoDatabase string
	AuditLog      string // all | db | log | off

	// Bulk uploads
	MaxUploadMB int
}
