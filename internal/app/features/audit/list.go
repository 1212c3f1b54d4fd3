// internal/app/features/audit/list.go
package audit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	auditstore "github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
)

const pageSize = 50

type eventView struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	Subject       string            `json:"subject,omitempty"`
	Backend       string            `json:"backend,omitempty"`
	Simulated     bool              `json:"simulated,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Success  bool        `json:"success"`
	Enabled  bool        `json:"enabled"`
	Events   []eventView `json:"events"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// ServeList handles GET /audit.
//
// Filters: category, event_type, subject, start_date and end_date
// (YYYY-MM-DD, end date inclusive) and page. With the audit database
// disabled the list is empty and enabled is false.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	resp := listResponse{Success: true, Events: []eventView{}, Page: page, PageSize: pageSize}

	if h.Store == nil {
		apierrors.WriteJSON(w, http.StatusOK, resp)
		return
	}
	resp.Enabled = true

	filter := auditstore.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Subject:   strings.TrimSpace(q.Get("subject")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apierrors.BadRequest(w, "invalid start_date: want YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apierrors.BadRequest(w, "invalid end_date: want YYYY-MM-DD")
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit.list")
	defer cancel()

	var events []auditstore.Event
	var err error
	if filter.Subject != "" && filter.Category == "" && filter.EventType == "" &&
		filter.StartTime == nil && filter.EndTime == nil && page == 1 {
		// History of one record.
		events, err = h.Store.GetBySubject(ctx, filter.Subject, pageSize)
	} else {
		events, err = h.Store.Query(ctx, filter)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events", err, "error fetching audit events")
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events", err, "error fetching audit events")
		return
	}

	resp.Total = total
	for _, e := range events {
		resp.Events = append(resp.Events, eventView{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Subject:       e.Subject,
			Backend:       e.Backend,
			Simulated:     e.Simulated,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	apierrors.WriteJSON(w, http.StatusOK, resp)
}
