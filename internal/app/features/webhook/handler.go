package webhook

import (
	"crypto/subtle"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/broadcast"
	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// TokenHeader carries the shared secret on inbound webhook calls.
const TokenHeader = "X-Secret-Token"

// ErrUnauthorized is returned when the token header does not match the
// configured secret.
var ErrUnauthorized = errors.New("unauthorized")

// Handler serves the webhook ingress and the push streams it feeds.
type Handler struct {
	Broadcaster *broadcast.Broadcaster
	AuditLog    *auditlog.Logger
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	ErrLog      *apierrors.ErrorLogger

	// Secret is the expected X-Secret-Token value. Empty disables the check.
	Secret string

	// Limiter throttles the POST endpoints per client IP. Nil disables it.
	Limiter *ratelimit.Limiter
}

// NewHandler constructs a webhook Handler. auditLog and m may be nil.
func NewHandler(b *broadcast.Broadcaster, secret string, auditLog *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Broadcaster: b,
		AuditLog:    auditLog,
		Metrics:     m,
		Log:         logger,
		ErrLog:      apierrors.NewErrorLogger(logger),
		Secret:      secret,
	}
}

// authorize compares the token header with the secret, exactly and
// case-sensitively. With no secret configured every call passes.
func (h *Handler) authorize(r *http.Request) error {
	if h.Secret == "" {
		h.Log.Warn("webhook secret not configured; accepting unauthenticated call",
			zap.String("ip", ratelimit.ClientIP(r)))
		return nil
	}
	got := r.Header.Get(TokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// tooManyRequests answers a throttled POST.
func (h *Handler) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.Log.Warn("webhook call rate limited",
		zap.String("ip", ratelimit.ClientIP(r)),
		zap.String("path", r.URL.Path))
	h.Metrics.Webhook("rate_limited")
	apierrors.Write(w, http.StatusTooManyRequests, "too many requests")
}
