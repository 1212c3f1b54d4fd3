package bulk_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/bulk"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/dalemusser/rosterhub/internal/testutil"
	"go.uber.org/zap"
)

var fullHeaders = []string{"Nombre", "Email", "Puesto", "Seniority", "Proyecto Actual", "Skills"}

func sheetRow(name, email, status string) []string {
	return []string{name, email, "Dev", "Senior", "Apollo", "Go", "", status}
}

func fullRow(name, email string) map[string]string {
	return map[string]string{
		"Nombre":          name,
		"Email":           email,
		"Puesto":          "QA",
		"Seniority":       "Mid",
		"Proyecto Actual": "Zeus",
		"Skills":          "SQL",
	}
}

func newProcessor(sheet *testutil.FakeSheet) *bulk.Processor {
	log := zap.NewNop()
	store := records.New(records.NewChain(log, nil, records.NewAPIStrategy(sheet, "", log)), log, nil)
	return bulk.NewProcessor(store, log, nil)
}

func TestInsert_ReactivatesDeletedRecord(t *testing.T) {
	sheet := testutil.NewFakeSheet(sheetRow("Ana", "ana@x.com", "Deleted"))
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := p.Run(ctx, []map[string]string{fullRow("Ana", "ANA@x.com")}, fullHeaders, bulk.OpInsert)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.UpdatedCount != 1 || res.InsertedCount != 0 {
		t.Errorf("updated=%d inserted=%d, want 1 and 0", res.UpdatedCount, res.InsertedCount)
	}
	if res.SuccessCount != 1 || res.ErrorCount != 0 {
		t.Errorf("success=%d errors=%d", res.SuccessCount, res.ErrorCount)
	}
	rows := sheet.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected no new row, sheet has %d rows", len(rows))
	}
	if rows[1][7] != models.StatusActive {
		t.Errorf("status = %q, want Active", rows[1][7])
	}
	if rows[1][2] != "QA" {
		t.Errorf("role = %q, want QA from the uploaded row", rows[1][2])
	}
}

func TestInsert_ActiveMatchIsSkippedWithoutBackendCall(t *testing.T) {
	sheet := testutil.NewFakeSheet(sheetRow("Ana", "ana@x.com", "Active"))
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := p.Run(ctx, []map[string]string{fullRow("Ana", "ana@x.com")}, fullHeaders, bulk.OpInsert)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SuccessCount != 1 {
		t.Errorf("success = %d, want 1", res.SuccessCount)
	}
	if res.InsertedCount+res.UpdatedCount+res.DeletedCount != 0 {
		t.Errorf("no counters besides success should move: %+v", res)
	}
	if sheet.Writes() != 0 {
		t.Errorf("expected no writes, got %d", sheet.Writes())
	}
	if !strings.HasPrefix(res.Details[0], "skipped:") {
		t.Errorf("detail %q should mark the skip", res.Details[0])
	}
}

func TestInsert_NewRowsAndPerRowErrors(t *testing.T) {
	sheet := testutil.NewFakeSheet()
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	missingSkills := fullRow("Eva", "eva@x.com")
	missingSkills["Skills"] = ""
	rows := []map[string]string{
		fullRow("Ana", "ana@x.com"),
		missingSkills,
		fullRow("Luis", "luis@x.com"),
	}

	res, err := p.Run(ctx, rows, fullHeaders, bulk.OpInsert)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.InsertedCount != 2 || res.ErrorCount != 1 {
		t.Errorf("inserted=%d errors=%d, want 2 and 1", res.InsertedCount, res.ErrorCount)
	}
	if len(res.Details) != 3 {
		t.Fatalf("expected 3 detail lines, got %d", len(res.Details))
	}
	if !strings.HasPrefix(res.Details[0], "inserted: Ana") ||
		!strings.Contains(res.Details[1], "missing required field: Skills") ||
		!strings.HasPrefix(res.Details[2], "inserted: Luis") {
		t.Errorf("details out of order or wrong: %v", res.Details)
	}
	if got := sheet.Rows()[1]; got[0] != "Ana" || got[7] != models.StatusActive {
		t.Errorf("stored row = %v", got)
	}
}

func TestInsert_MissingHeaderRejectsBatch(t *testing.T) {
	sheet := testutil.NewFakeSheet()
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	headers := []string{"Nombre", "Email", "Puesto", "Seniority", "Proyecto Actual"}
	_, err := p.Run(ctx, []map[string]string{fullRow("Ana", "ana@x.com")}, headers, bulk.OpInsert)

	var ve *records.ValidationError
	if !errors.As(err, &ve) || ve.Field != "Skills" {
		t.Fatalf("err = %v, want missing Skills", err)
	}
	if sheet.Gets != 0 || sheet.Writes() != 0 {
		t.Error("no row should run when the header is rejected")
	}
}

func TestDelete_OnlyNeedsIdentityColumn(t *testing.T) {
	sheet := testutil.NewFakeSheet(
		sheetRow("Ana", "ana@x.com", ""),
		sheetRow("Luis", "luis@x.com", "Deleted"),
	)
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	headers := []string{"Correo Electrónico"}
	rows := []map[string]string{
		{"Correo Electrónico": "ana@x.com"},
		{"Correo Electrónico": "luis@x.com"},
		{"Correo Electrónico": "ghost@x.com"},
	}

	res, err := p.Run(ctx, rows, headers, bulk.OpDelete)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DeletedCount != 1 || res.ErrorCount != 2 {
		t.Errorf("deleted=%d errors=%d, want 1 and 2", res.DeletedCount, res.ErrorCount)
	}
	if !strings.Contains(res.Details[1], "already deleted") {
		t.Errorf("detail %q should carry the underlying message", res.Details[1])
	}
	if !strings.Contains(res.Details[2], "record not found") {
		t.Errorf("detail %q should carry the underlying message", res.Details[2])
	}
}

func TestUpdate_PatchesAllFieldsExceptIdentity(t *testing.T) {
	sheet := testutil.NewFakeSheet(sheetRow("Ana", "ana@x.com", "Deleted"))
	p := newProcessor(sheet)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := p.Run(ctx, []map[string]string{fullRow("Ana B", "ana@x.com")}, fullHeaders, bulk.OpUpdate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.UpdatedCount != 1 {
		t.Fatalf("updated = %d, details %v", res.UpdatedCount, res.Details)
	}
	got := sheet.Rows()[1]
	if got[0] != "Ana B" || got[1] != "ana@x.com" {
		t.Errorf("row = %v", got)
	}
	if got[7] != "Deleted" {
		t.Errorf("update without Status must keep it, got %q", got[7])
	}
}

type listFailStore struct {
	created []models.Record
}

func (s *listFailStore) ListAll(context.Context) ([]models.Record, error) {
	return nil, errors.New("sheet offline")
}
func (s *listFailStore) ListActive(context.Context) ([]models.Record, error) {
	return nil, errors.New("sheet offline")
}
func (s *listFailStore) Create(_ context.Context, rec models.Record) (models.Record, error) {
	s.created = append(s.created, rec)
	return rec, nil
}
func (s *listFailStore) Update(context.Context, string, models.Patch) (models.Record, error) {
	return models.Record{}, errors.New("unexpected update")
}
func (s *listFailStore) SoftDelete(context.Context, string) (models.Record, error) {
	return models.Record{}, errors.New("unexpected delete")
}

func TestSnapshotFailureContinues(t *testing.T) {
	store := &listFailStore{}
	p := bulk.NewProcessor(store, zap.NewNop(), nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := p.Run(ctx, []map[string]string{fullRow("Ana", "ana@x.com")}, fullHeaders, bulk.OpInsert)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.InsertedCount != 1 || len(store.created) != 1 {
		t.Errorf("expected insert despite snapshot failure, got %+v", res)
	}
	if store.created[0].Name != "Ana" || store.created[0].Role != "QA" {
		t.Errorf("created = %+v", store.created[0])
	}
}

func TestIdentityColumn(t *testing.T) {
	tests := []struct {
		headers []string
		want    string
		ok      bool
	}{
		{[]string{"Nombre", "E-Mail Address"}, "E-Mail Address", true},
		{[]string{"Correo", "Email"}, "Correo", true},
		{[]string{"Nombre", "Puesto"}, "", false},
	}
	for _, tt := range tests {
		got, ok := bulk.IdentityColumn(tt.headers)
		if got != tt.want || ok != tt.ok {
			t.Errorf("IdentityColumn(%v) = (%q, %v), want (%q, %v)", tt.headers, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseOperation(t *testing.T) {
	if op, err := bulk.ParseOperation(" Delete "); err != nil || op != bulk.OpDelete {
		t.Errorf("got (%q, %v)", op, err)
	}
	if _, err := bulk.ParseOperation("purge"); !records.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}
