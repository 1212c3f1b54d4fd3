package bulkupload

import (
	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/bulk"
	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"go.uber.org/zap"
)

// Handler serves bulk uploads of employee rows.
type Handler struct {
	Processor *bulk.Processor
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
	ErrLog    *apierrors.ErrorLogger

	// MaxUploadBytes bounds the request body.
	MaxUploadBytes int64
}

// NewHandler constructs a bulk upload Handler. auditLog may be nil.
func NewHandler(processor *bulk.Processor, auditLog *auditlog.Logger, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = csvutil.MaxUploadSize
	}
	return &Handler{
		Processor:      processor,
		AuditLog:       auditLog,
		Log:            logger,
		ErrLog:         apierrors.NewErrorLogger(logger),
		MaxUploadBytes: maxUploadBytes,
	}
}
