// internal/app/features/dashboard/handler.go
package dashboard

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

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([][]string, error)
}

type Handler struct {
	Fetcher Fetcher
	URL     string
	Log     *zap.Logger
}

func NewHandler(fetcher Fetcher, url string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Fetcher: fetcher, URL: url, Log: logger}
}

type dashboardResponse struct {
	Success   bool                    `json:"success"`
	Data      []models.DashboardEntry `json:"data"`
	Error     string                  `json:"error,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// ServeDashboard handles GET /dashboard with the matching groups feed.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.load(r.Context())
	if err != nil {
		h.Log.Error("fetch dashboard feed", zap.Error(err))
		apierrors.WriteJSON(w, http.StatusInternalServerError, dashboardResponse{
			Error:     "error fetching dashboard data",
			Data:      []models.DashboardEntry{},
			Timestamp: time.Now().UTC(),
		})
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, dashboardResponse{
		Success:   true,
		Data:      entries,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) load(ctx context.Context) ([]models.DashboardEntry, error) {
	out := []models.DashboardEntry{}
	if h.URL == "" || h.Fetcher == nil {
		return out, nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "dashboard.fetch")
	defer cancel()

	table, err := h.Fetcher.Fetch(ctx, h.URL)
	switch {
	case errors.Is(err, csvutil.ErrBadStatus):
		h.Log.Warn("dashboard export unavailable", zap.Error(err))
		return out, nil
	case err != nil:
		return nil, err
	}

	_, rows := csvutil.Objects(table)
	for _, row := range rows {
		out = append(out, models.DashboardEntry{
			GroupID:         csvutil.Pick(row, "GroupId", "groupid"),
			Solicitante:     csvutil.Pick(row, "Solicitante", "solicitante"),
			Candidato:       csvutil.Pick(row, "Candidato", "candidato"),
			MensajeOriginal: csvutil.Pick(row, "MensajeOriginal", "mensajeoriginal"),
		})
	}
	return out, nil
}
