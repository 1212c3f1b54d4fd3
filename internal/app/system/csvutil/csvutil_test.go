package csvutil

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestReadTable_CSVWithBOM(t *testing.T) {
	data := "\ufeffName,Email\nAna,ana@x.com\n,\nLuis,luis@x.com"

	rows, err := ReadTable(strings.NewReader(data), "people.csv", 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (blank row dropped)", len(rows))
	}
	if rows[0][0] != "Name" {
		t.Errorf("header[0] = %q, BOM not removed", rows[0][0])
	}
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := ReadTable(strings.NewReader("x"), "people.pdf", 0)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestReadTable_Empty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), "people.csv", 0)
	if !errors.Is(err, ErrEmptyTable) {
		t.Errorf("err = %v, want ErrEmptyTable", err)
	}
}

func TestReadTable_SizeLimit(t *testing.T) {
	data := "Name,Email\nAna,ana@x.com\n"

	if _, err := ReadTable(strings.NewReader(data), "people.csv", 16); err == nil || !strings.Contains(err.Error(), "exceeds 16 bytes") {
		t.Errorf("err = %v, want size error", err)
	}

	// A limit above the default lets a larger file through.
	row := "Ana," + strings.Repeat("a", 380) + "@x.com\n"
	big := "Name,Email\n" + strings.Repeat(row, MaxUploadSize/len(row)+10)
	if len(big) <= MaxUploadSize {
		t.Fatalf("fixture is %d bytes, want more than %d", len(big), MaxUploadSize)
	}
	if _, err := ReadTable(strings.NewReader(big), "people.csv", 0); err == nil {
		t.Error("default limit should reject the file")
	}
	rows, err := ReadTable(strings.NewReader(big), "people.csv", int64(len(big)))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(rows) < 2 {
		t.Errorf("got %d rows", len(rows))
	}
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"Name", "Email"})
	_ = f.SetSheetRow(sheet, "A2", &[]interface{}{"Ana", "ana@x.com"})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	rows, err := ReadTable(&buf, "people.XLSX", 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "ana@x.com" {
		t.Errorf("rows = %v", rows)
	}
}

func TestObjects_PadsShortRows(t *testing.T) {
	headers, objs := Objects([][]string{
		{" Name ", "Email", "Role"},
		{"Ana", "ana@x.com"},
	})
	if headers[0] != "Name" {
		t.Errorf("header not trimmed: %q", headers[0])
	}
	if len(objs) != 1 {
		t.Fatalf("got %d objects", len(objs))
	}
	if v, ok := objs[0]["Role"]; !ok || v != "" {
		t.Errorf("Role = %q (present=%v), want empty and present", v, ok)
	}
}

func TestFetch_AddsCacheBuster(t *testing.T) {
	var gotCB string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCB = r.URL.Query().Get("cb")
		_, _ = w.Write([]byte("Fecha,usuario\n2024-01-01,ana"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	f.Now = func() time.Time { return time.UnixMilli(1700000000000) }

	rows, err := f.Fetch(context.Background(), srv.URL+"/export?format=csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotCB != "1700000000000" {
		t.Errorf("cb = %q", gotCB)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrBadStatus) {
		t.Errorf("err = %v, want ErrBadStatus", err)
	}
}

func TestGvizURL(t *testing.T) {
	got := GvizURL("abc", "")
	want := "https://docs.google.com/spreadsheets/d/abc/gviz/tq?tqx=out:csv&gid=0"
	if got != want {
		t.Errorf("GvizURL = %q, want %q", got, want)
	}
}
