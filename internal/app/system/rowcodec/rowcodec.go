// Package rowcodec converts between spreadsheet rows and records.
//
// Rows coming from the Sheets API, the CSV export, or an uploaded file are
// open-ended: a header row of arbitrary names plus data rows that may be
// shorter than the header. This package is the only place that shape is
// handled; everything past it works with models.Record.
package rowcodec

import (
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// Loose is an untyped row keyed by header name, as produced by CSV and
// spreadsheet parsing.
type Loose map[string]string

// Decode zips a header row with a data row. Cells missing at the end of the
// row decode as "". Headers outside the schema are kept in Extra.
func Decode(headers, row []string) models.Record {
	var rec models.Record
	for i, h := range headers {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if f, ok := models.FieldForKey(h); ok {
			rec.Set(f, cell)
			continue
		}
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = map[string]string{}
		}
		rec.Extra[name] = cell
	}
	return rec
}

// DecodeTable decodes a full sheet (header row first) and assigns derived ids.
// Record i always corresponds to sheet row i+2.
func DecodeTable(rows [][]string) []models.Record {
	if len(rows) == 0 {
		return []models.Record{}
	}
	headers := rows[0]
	out := make([]models.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Decode(headers, row)
		rec.ID = DerivedID(rec, i)
		out = append(out, rec)
	}
	return out
}

// Encode produces the eight cells of the fixed schema, in column order.
// Columns that exist only in Extra cannot be written and are returned in
// dropped so the caller can report the loss.
func Encode(rec models.Record) (cells []string, dropped []string) {
	cells = make([]string, len(models.Schema))
	for i, f := range models.Schema {
		cells[i] = rec.Get(f)
	}
	for k := range rec.Extra {
		dropped = append(dropped, k)
	}
	return cells, dropped
}

// DerivedID is the display identifier: Email, or record-<index> when blank.
func DerivedID(rec models.Record, index int) string {
	if e := strings.TrimSpace(rec.Email); e != "" {
		return e
	}
	return fmt.Sprintf("record-%d", index)
}

// FromLoose builds a record from a loose row. Keys may be canonical names or
// aliases; values are trimmed and stripped of markup. Keys outside the schema
// go to Extra.
func FromLoose(row Loose) models.Record {
	var rec models.Record
	for k, v := range row {
		v = clean(v)
		if f, ok := models.FieldForKey(k); ok {
			rec.Set(f, v)
			continue
		}
		if k == "id" || strings.TrimSpace(k) == "" {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = map[string]string{}
		}
		rec.Extra[k] = v
	}
	return rec
}

// PatchFromLoose builds a patch containing only the schema fields present in
// row. Email and any key listed in skip are never part of a patch.
func PatchFromLoose(row Loose, skip ...string) models.Patch {
	p := models.Patch{}
	for k, v := range row {
		if contains(skip, k) {
			continue
		}
		f, ok := models.FieldForKey(k)
		if !ok || f == models.FieldEmail {
			continue
		}
		p[f] = clean(v)
	}
	return p
}

// MissingRequired returns the first required field that is blank in rec.
func MissingRequired(rec models.Record) (models.Field, bool) {
	for _, f := range models.RequiredFields {
		if strings.TrimSpace(rec.Get(f)) == "" {
			return f, true
		}
	}
	return "", false
}

// LooseFromJSON stringifies a decoded JSON object into a loose row.
func LooseFromJSON(m map[string]any) Loose {
	out := make(Loose, len(m))
	for k, v := range m {
		out[k] = models.Stringify(v)
	}
	return out
}

func clean(v string) string {
	return htmlsanitize.StripTags(strings.TrimSpace(v))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
