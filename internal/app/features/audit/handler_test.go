package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auditfeature "github.com/dalemusser/rosterhub/internal/app/features/audit"
	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	events     []audit.Event
	got        audit.QueryFilter
	bySubject  string
	subjectCap int64
	err        error
}

func (f *fakeStore) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	f.got = filter
	return f.events, f.err
}

func (f *fakeStore) GetBySubject(_ context.Context, subject string, limit int64) ([]audit.Event, error) {
	f.bySubject, f.subjectCap = subject, limit
	return f.events, f.err
}

func (f *fakeStore) CountByFilter(context.Context, audit.QueryFilter) (int64, error) {
	return int64(len(f.events)), f.err
}

type listBody struct {
	Enabled bool `json:"enabled"`
	Total   int  `json:"total"`
	Events  []struct {
		EventType string `json:"eventType"`
		Subject   string `json:"subject"`
	} `json:"events"`
}

func get(t *testing.T, h *auditfeature.Handler, target, token string) (*httptest.ResponseRecorder, listBody) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if token != "" {
		req.Header.Set(auditfeature.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	auditfeature.Routes(h).ServeHTTP(rec, req)

	var body listBody
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec, body
}

func TestServeList_Filters(t *testing.T) {
	store := &fakeStore{events: []audit.Event{{
		ID:        primitive.NewObjectID(),
		Timestamp: time.Now(),
		Category:  audit.CategoryRecords,
		EventType: audit.EventRecordDeleted,
		Subject:   "ana@x.com",
		Success:   true,
	}}}
	h := auditfeature.NewHandler(store, "", zap.NewNop())

	rec, body := get(t, h, "/?category=records&subject=ana@x.com&start_date=2024-05-01&end_date=2024-05-02&page=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !body.Enabled || body.Total != 1 || len(body.Events) != 1 || body.Events[0].Subject != "ana@x.com" {
		t.Errorf("body = %+v", body)
	}

	f := store.got
	if f.Category != "records" || f.Subject != "ana@x.com" || f.Offset != 50 {
		t.Errorf("filter = %+v", f)
	}
	if f.StartTime == nil || !f.StartTime.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", f.StartTime)
	}
	if f.EndTime == nil || f.EndTime.Day() != 2 || f.EndTime.Hour() != 23 {
		t.Errorf("end = %v, want the end of May 2", f.EndTime)
	}
}

func TestServeList_SubjectHistory(t *testing.T) {
	store := &fakeStore{events: []audit.Event{{
		ID:        primitive.NewObjectID(),
		Timestamp: time.Now(),
		Category:  audit.CategoryRecords,
		EventType: audit.EventRecordDeleted,
		Subject:   "ana@x.com",
		Success:   true,
	}}}
	h := auditfeature.NewHandler(store, "", zap.NewNop())

	rec, body := get(t, h, "/?subject=ana@x.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if store.bySubject != "ana@x.com" || store.subjectCap != 50 {
		t.Errorf("GetBySubject(%q, %d), want (ana@x.com, 50)", store.bySubject, store.subjectCap)
	}
	if store.got.Subject != "" {
		t.Errorf("Query called with %+v, want the subject lookup", store.got)
	}
	if body.Total != 1 || len(body.Events) != 1 {
		t.Errorf("body = %+v", body)
	}

	// Any other filter goes through Query.
	store.bySubject = ""
	if rec, _ := get(t, h, "/?subject=ana@x.com&page=2", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.bySubject != "" || store.got.Subject != "ana@x.com" {
		t.Errorf("page 2 should use Query; bySubject = %q, filter = %+v", store.bySubject, store.got)
	}
}

func TestServeList_Disabled(t *testing.T) {
	h := auditfeature.NewHandler(nil, "", zap.NewNop())
	rec, body := get(t, h, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Enabled || body.Events == nil || len(body.Events) != 0 {
		t.Errorf("body = %+v, want disabled with empty events", body)
	}
}

func TestServeList_Errors(t *testing.T) {
	h := auditfeature.NewHandler(&fakeStore{err: errors.New("mongo down")}, "s3cret", zap.NewNop())

	tests := []struct {
		name   string
		target string
		token  string
		status int
	}{
		{"missing token", "/", "", http.StatusUnauthorized},
		{"wrong token", "/", "nope", http.StatusUnauthorized},
		{"bad date", "/?start_date=05/01/2024", "s3cret", http.StatusBadRequest},
		{"store failure", "/", "s3cret", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := get(t, h, tt.target, tt.token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
