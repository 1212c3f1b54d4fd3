package bulkupload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/features/bulkupload"
	"github.com/dalemusser/rosterhub/internal/app/store/audit"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/bulk"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/dalemusser/rosterhub/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type response struct {
	Success       bool     `json:"success"`
	Operation     string   `json:"operation"`
	SuccessCount  int      `json:"successCount"`
	ErrorCount    int      `json:"errorCount"`
	InsertedCount int      `json:"insertedCount"`
	DeletedCount  int      `json:"deletedCount"`
	Details       []string `json:"details"`
}

func newHandler(sheet *testutil.FakeSheet, al *auditlog.Logger) *bulkupload.Handler {
	log := zap.NewNop()
	store := records.New(records.NewChain(log, nil, records.NewAPIStrategy(sheet, "", log)), log, nil)
	return bulkupload.NewHandler(bulk.NewProcessor(store, log, nil), al, 0, log)
}

func multipartRequest(t *testing.T, op, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("operation", op); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/employees/bulk", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const insertCSV = "Nombre,Email,Puesto,Seniority,Proyecto Actual,Skills\n" +
	"Ana,ana@x.com,Dev,Senior,Apollo,Go\n" +
	"Luis,luis@x.com,QA,Mid,Zeus,\n"

func TestUpload_CSVInsert(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sheet := testutil.NewFakeSheet()
	h := newHandler(sheet, auditlog.New(nil, zap.New(core), auditlog.Uniform(auditlog.ModeLog)))

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "insert", "people.csv", []byte(insertCSV)))

	rec.AssertStatus(t, http.StatusOK)
	var out response
	rec.DecodeJSON(t, &out)
	if !out.Success || out.InsertedCount != 1 || out.ErrorCount != 1 {
		t.Errorf("response = %s", rec.Body.String())
	}
	if rows := sheet.Rows(); len(rows) != 2 || rows[1][0] != "Ana" {
		t.Errorf("sheet rows = %v", rows)
	}

	var audited bool
	for _, e := range logs.FilterMessage("audit event").All() {
		if e.ContextMap()["event_type"] == audit.EventBulkCompleted {
			audited = true
		}
	}
	if !audited {
		t.Error("expected a bulk_completed audit event")
	}
}

func TestUpload_XLSXDelete(t *testing.T) {
	sheet := testutil.NewFakeSheet([]string{"Ana", "ana@x.com", "Dev", "Senior", "Apollo", "Go", "", "Active"})
	h := newHandler(sheet, nil)

	f := excelize.NewFile()
	name := f.GetSheetName(0)
	_ = f.SetSheetRow(name, "A1", &[]interface{}{"Correo"})
	_ = f.SetSheetRow(name, "A2", &[]interface{}{"ana@x.com"})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "delete", "people.xlsx", buf.Bytes()))

	rec.AssertStatus(t, http.StatusOK)
	var out response
	rec.DecodeJSON(t, &out)
	if out.DeletedCount != 1 {
		t.Errorf("response = %s", rec.Body.String())
	}
	if got := sheet.Rows()[1][7]; got != models.StatusDeleted {
		t.Errorf("status = %q", got)
	}
}

func TestUpload_JSONRows(t *testing.T) {
	sheet := testutil.NewFakeSheet()
	h := newHandler(sheet, nil)

	body := map[string]any{
		"operation": "insert",
		"rows": []map[string]any{{
			"Name":           "Eva",
			"Email":          "eva@x.com",
			"Role":           "Dev",
			"SeniorityLevel": "Junior",
			"CurrentProject": "Hermes",
			"Skills":         "Go",
		}},
	}
	rec := testutil.NewRecorder()
	h.HandleUpload(rec, testutil.NewJSONRequest("POST", "/employees/bulk", body))

	rec.AssertStatus(t, http.StatusOK)
	var out response
	rec.DecodeJSON(t, &out)
	if out.InsertedCount != 1 {
		t.Errorf("response = %s", rec.Body.String())
	}
}

func TestUpload_JSONIdentityIsFirstEmailKey(t *testing.T) {
	sheet := testutil.NewFakeSheet([]string{"Ana", "ana@x.com", "Dev", "Senior", "Apollo", "Go", "", "Active"})
	h := newHandler(sheet, nil)

	body := `{"operation":"delete","rows":[{"Email":"ana@x.com","AltEmail":"ana.alt@y.com"}]}`
	rec := testutil.NewRecorder()
	h.HandleUpload(rec, testutil.NewJSONRequest("POST", "/employees/bulk", body))

	rec.AssertStatus(t, http.StatusOK)
	var out response
	rec.DecodeJSON(t, &out)
	if out.DeletedCount != 1 || out.ErrorCount != 0 {
		t.Errorf("response = %s, want the Email column used as identity", rec.Body.String())
	}
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"unknown operation", func(t *testing.T) *http.Request {
			return multipartRequest(t, "purge", "people.csv", []byte(insertCSV))
		}},
		{"unsupported file", func(t *testing.T) *http.Request {
			return multipartRequest(t, "insert", "people.pdf", []byte("%PDF"))
		}},
		{"missing identity column", func(t *testing.T) *http.Request {
			return multipartRequest(t, "delete", "people.csv", []byte("Nombre\nAna\n"))
		}},
		{"malformed json", func(t *testing.T) *http.Request {
			return testutil.NewJSONRequest("POST", "/employees/bulk", "{")
		}},
		{"row not an object", func(t *testing.T) *http.Request {
			return testutil.NewJSONRequest("POST", "/employees/bulk", `{"operation":"insert","rows":["Ana"]}`)
		}},
		{"no rows", func(t *testing.T) *http.Request {
			return testutil.NewJSONRequest("POST", "/employees/bulk", map[string]any{"operation": "insert"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := testutil.NewFakeSheet()
			h := newHandler(sheet, nil)
			rec := testutil.NewRecorder()
			h.HandleUpload(rec, tt.req(t))
			rec.AssertStatus(t, http.StatusBadRequest)
			if sheet.Writes() != 0 {
				t.Errorf("writes = %d, want 0", sheet.Writes())
			}
		})
	}
}
