// internal/app/features/webhook/ingress.go
package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/system/ratelimit"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// maxPayloadBytes bounds an inbound webhook body.
const maxPayloadBytes = 64 << 10

type ackResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type livenessResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleSheetUpdated handles POST /webhook/sheet-updated.
//
// 401 on a bad token (nothing is broadcast), 500 when the body is not
// JSON, 400 when it does not have the sheet change shape. Otherwise the
// payload is broadcast as a sheet-updated notification and acknowledged.
// Delivery failures to individual subscribers are not reported.
func (h *Handler) HandleSheetUpdated(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		h.Log.Warn("webhook rejected: invalid token", zap.String("ip", ratelimit.ClientIP(r)))
		h.Metrics.Webhook("unauthorized")
		h.AuditLog.WebhookRejected(r.Context(), r, "invalid token")
		apierrors.Write(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read webhook body", err, "error processing webhook")
		h.Metrics.Webhook("error")
		return
	}
	doc, err := decodePayload(body)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "parse webhook body", err, "error processing webhook")
		h.Metrics.Webhook("error")
		return
	}
	if err := validatePayload(doc); err != nil {
		h.Log.Info("webhook payload rejected", zap.Error(err))
		h.Metrics.Webhook("invalid")
		h.AuditLog.WebhookRejected(r.Context(), r, "invalid payload")
		apierrors.BadRequest(w, "invalid webhook payload: "+err.Error())
		return
	}

	var change models.SheetChange
	if err := json.Unmarshal(body, &change); err != nil {
		h.ErrLog.LogServerError(w, r, "decode sheet change", err, "error processing webhook")
		h.Metrics.Webhook("error")
		return
	}

	h.Log.Info("sheet change received",
		zap.String("sheet_id", change.SheetID),
		zap.String("range", change.Range),
		zap.String("event_type", change.EventType))

	delivered := h.Broadcaster.Publish(models.NotificationSheetUpdated, json.RawMessage(body))
	h.Metrics.Webhook("accepted")
	h.AuditLog.WebhookReceived(r.Context(), r, change, delivered)

	apierrors.WriteJSON(w, http.StatusOK, ackResponse{
		Success:   true,
		Message:   "webhook processed",
		Timestamp: time.Now().UTC(),
	})
}

// ServeSheetUpdated handles GET /webhook/sheet-updated as a liveness check.
func (h *Handler) ServeSheetUpdated(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, livenessResponse{
		Message:   "webhook endpoint active",
		Timestamp: time.Now().UTC(),
	})
}
