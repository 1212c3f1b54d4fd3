package requests

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// Fetcher downloads a published CSV export. csvutil.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([][]string, error)
}

// Handler serves the read-only requests sheet.
type Handler struct {
	Fetcher Fetcher
	URL     string
	Log     *zap.Logger
}

// NewHandler constructs a requests Handler. An empty url serves an empty
// list.
func NewHandler(fetcher Fetcher, url string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Fetcher: fetcher, URL: url, Log: logger}
}

type listResponse struct {
	Success   bool                  `json:"success"`
	Data      []models.RequestEntry `json:"data"`
	Error     string                `json:"error,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// ServeList handles GET /requests.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.load(r.Context())
	if err != nil {
		h.Log.Error("fetch requests feed", zap.Error(err))
		apierrors.WriteJSON(w, http.StatusInternalServerError, listResponse{
			Error:     "error fetching requests",
			Data:      []models.RequestEntry{},
			Timestamp: time.Now().UTC(),
		})
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, listResponse{
		Success:   true,
		Data:      entries,
		Timestamp: time.Now().UTC(),
	})
}

// load fetches and normalizes the feed. No URL and a non-2xx export both
// yield an empty list.
func (h *Handler) load(ctx context.Context) ([]models.RequestEntry, error) {
	out := []models.RequestEntry{}
	if h.URL == "" || h.Fetcher == nil {
		return out, nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "requests.fetch")
	defer cancel()

	table, err := h.Fetcher.Fetch(ctx, h.URL)
	if errors.Is(err, csvutil.ErrBadStatus) {
		h.Log.Warn("requests export unavailable", zap.Error(err))
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	_, rows := csvutil.Objects(table)
	for _, row := range rows {
		out = append(out, models.RequestEntry{
			Fecha:           csvutil.Pick(row, "Fecha", "fecha"),
			Usuario:         csvutil.Pick(row, "usuario", "Usuario"),
			Skill:           csvutil.Pick(row, "skill", "Skill"),
			MensajeOriginal: csvutil.Pick(row, "mensaje_original", "MensajeOriginal"),
		})
	}
	return out, nil
}
