package health

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger checks the audit database. audit.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports open push connections. broadcast.Broadcaster
// implements it.
type Counter interface {
	Count() int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Tiers       []records.Tier
	Subscribers Counter
	AuditDB     Pinger
	Log         *zap.Logger
}

// NewHandler constructs a health Handler. auditDB may be nil when the audit
// trail is not stored in MongoDB.
func NewHandler(tiers []records.Tier, subscribers Counter, auditDB Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Tiers:       tiers,
		Subscribers: subscribers,
		AuditDB:     auditDB,
		Log:         logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status      string         `json:"status"`
	Database    string         `json:"database"`
	Tiers       []records.Tier `json:"tiers"`
	Subscribers int            `json:"subscribers"`
	Message     string         `json:"message,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "tiers":[...], "subscribers":2 }
//
// database is "disabled" when no audit database is configured. When the
// audit database does not answer a ping: 503 with status "error".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "disabled",
		Tiers:    h.Tiers,
	}
	if resp.Tiers == nil {
		resp.Tiers = []records.Tier{}
	}
	if h.Subscribers != nil {
		resp.Subscribers = h.Subscribers.Count()
	}

	if h.AuditDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
		defer cancel()
		if err := h.AuditDB.Ping(ctx); err != nil {
			h.Log.Error("health-check: audit database ping failed", zap.Error(err))
			resp.Status = "error"
			resp.Database = "disconnected"
			resp.Message = "Audit database unavailable"
			resp.Error = err.Error()
			apierrors.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "connected"
	}

	apierrors.WriteJSON(w, http.StatusOK, resp)
}
