// internal/app/features/audit/handler.go
package audit

import (
	"context"
	"crypto/subtle"
	"net/http"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	auditstore "github.com/dalemusser/rosterhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// TokenHeader carries the shared secret on audit reads. It is the same
// header the sheet trigger sends to the webhook.
const TokenHeader = "X-Secret-Token"

// Querier reads audit events. *audit.Store implements it.
type Querier interface {
	Query(ctx context.Context, filter auditstore.QueryFilter) ([]auditstore.Event, error)
	CountByFilter(ctx context.Context, filter auditstore.QueryFilter) (int64, error)
	GetBySubject(ctx context.Context, subject string, limit int64) ([]auditstore.Event, error)
}

// Handler serves the read-only audit trail.
type Handler struct {
	Store  Querier // nil when the audit database is disabled
	Secret string  // required in TokenHeader when set
	Log    *zap.Logger
	ErrLog *apierrors.ErrorLogger
}

// NewHandler constructs an audit Handler. store may be nil.
func NewHandler(store Querier, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Secret: secret,
		Log:    logger,
		ErrLog: apierrors.NewErrorLogger(logger),
	}
}

// requireToken rejects calls without the shared secret when one is set.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Secret != "" {
			got := r.Header.Get(TokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
				apierrors.Write(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
