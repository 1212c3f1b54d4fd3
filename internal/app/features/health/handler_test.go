package health_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/features/health"
	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/testutil"
	"go.uber.org/zap"
)

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("server selection timeout") }

type response struct {
	Status      string         `json:"status"`
	Database    string         `json:"database"`
	Tiers       []records.Tier `json:"tiers"`
	Subscribers int            `json:"subscribers"`
}

func TestServe_NoAuditDatabase(t *testing.T) {
	tiers := []records.Tier{{Name: "api", Configured: false}, {Name: "csv", Configured: true}, {Name: "echo", Configured: true}}
	h := health.NewHandler(tiers, fixedCount(3), nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var resp response
	rec.DecodeJSON(t, &resp)
	if resp.Status != "ok" || resp.Database != "disabled" {
		t.Errorf("status=%q database=%q", resp.Status, resp.Database)
	}
	if resp.Subscribers != 3 || len(resp.Tiers) != 3 || resp.Tiers[1].Name != "csv" || !resp.Tiers[1].Configured {
		t.Errorf("response = %+v", resp)
	}
}

func TestServe_AuditDatabaseDown(t *testing.T) {
	h := health.NewHandler(nil, fixedCount(0), failingPinger{}, zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	var resp response
	rec.DecodeJSON(t, &resp)
	if resp.Status != "error" || resp.Database != "disconnected" {
		t.Errorf("status=%q database=%q", resp.Status, resp.Database)
	}
}

func TestServe_AuditDatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(nil, fixedCount(0), audit.New(db), zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"database":"connected"`)
}
