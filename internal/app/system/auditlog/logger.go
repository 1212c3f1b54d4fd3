// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// Destination modes.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// ValidMode reports whether m is a recognized destination mode.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Records controls record write events.
	Records string
	// Webhook controls webhook delivery events.
	Webhook string
	// Bulk controls bulk run summaries.
	Bulk string
}

// Uniform returns a Config with every category set to mode.
func Uniform(mode string) Config {
	return Config{Records: mode, Webhook: mode, Bulk: mode}
}

// Logger writes audit events to MongoDB (via audit.Store) and zap.
// A nil store disables the MongoDB destination.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.Backend != "" {
		fields = append(fields, zap.String("backend", event.Backend), zap.Bool("simulated", event.Simulated))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's mode.
// Calling Log on a nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryRecords:
		setting = l.config.Records
	case audit.CategoryWebhook:
		setting = l.config.Webhook
	case audit.CategoryBulk:
		setting = l.config.Bulk
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Record events ---

// RecordWrite logs the outcome of a create, update or delete. op is one of
// "create", "update" or "delete". It satisfies records.Recorder.
func (l *Logger) RecordWrite(ctx context.Context, op string, rec models.Record, backend string, err error) {
	var eventType string
	switch op {
	case "create":
		eventType = audit.EventRecordCreated
	case "delete":
		eventType = audit.EventRecordDeleted
	default:
		eventType = audit.EventRecordUpdated
	}
	event := audit.Event{
		Category:  audit.CategoryRecords,
		EventType: eventType,
		Subject:   rec.Identity(),
		Backend:   backend,
		Simulated: rec.Instructions != "",
		Success:   err == nil,
	}
	if err != nil {
		event.FailureReason = err.Error()
	}
	if rec.Status != "" {
		event.Details = map[string]string{"status": rec.Status}
	}
	l.Log(ctx, event)
}

// --- Webhook events ---

// WebhookReceived logs an accepted sheet change.
func (l *Logger) WebhookReceived(ctx context.Context, r *http.Request, change models.SheetChange, subscribers int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryWebhook,
		EventType: audit.EventWebhookReceived,
		Subject:   change.SheetID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details: map[string]string{
			"range":       change.Range,
			"event_type":  change.EventType,
			"user_id":     change.UserID,
			"subscribers": strconv.Itoa(subscribers),
		},
	})
}

// WebhookRejected logs a delivery that was refused.
func (l *Logger) WebhookRejected(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWebhook,
		EventType:     audit.EventWebhookRejected,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
	})
}

// --- Bulk events ---

// BulkSummary is the part of a bulk result that is audited.
type BulkSummary struct {
	RunID     string
	Operation string
	Success   int
	Errors    int
	Inserted  int
	Updated   int
	Deleted   int
}

// BulkCompleted logs the summary of one bulk run.
func (l *Logger) BulkCompleted(ctx context.Context, r *http.Request, s BulkSummary) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryBulk,
		EventType: audit.EventBulkCompleted,
		Subject:   s.RunID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   s.Errors == 0,
		Details: map[string]string{
			"operation": s.Operation,
			"success":   strconv.Itoa(s.Success),
			"errors":    strconv.Itoa(s.Errors),
			"inserted":  strconv.Itoa(s.Inserted),
			"updated":   strconv.Itoa(s.Updated),
			"deleted":   strconv.Itoa(s.Deleted),
		},
	})
}
