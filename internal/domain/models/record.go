// internal/domain/models/record.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field names one of the eight spreadsheet columns.
type Field string

const (
	FieldName           Field = "Name"
	FieldEmail          Field = "Email"
	FieldRole           Field = "Role"
	FieldSeniorityLevel Field = "SeniorityLevel"
	FieldCurrentProject Field = "CurrentProject"
	FieldSkills         Field = "Skills"
	FieldResumeLink     Field = "ResumeLink"
	FieldStatus         Field = "Status"
)

// Schema is the closed column layout of the sheet, in column order (A..H).
var Schema = []Field{
	FieldName,
	FieldEmail,
	FieldRole,
	FieldSeniorityLevel,
	FieldCurrentProject,
	FieldSkills,
	FieldResumeLink,
	FieldStatus,
}

// RequiredFields must be non-empty when a record is created.
var RequiredFields = []Field{
	FieldName,
	FieldEmail,
	FieldRole,
	FieldSeniorityLevel,
	FieldCurrentProject,
	FieldSkills,
}

// Status values. Older sheets still carry the Spanish "Eliminado", which
// reads as deleted; it is never written.
const (
	StatusActive  = "Active"
	StatusDeleted = "Deleted"

	legacyStatusDeleted = "Eliminado"
)

// fieldAliases maps folded header/key spellings to canonical fields.
var fieldAliases = map[string]Field{
	"name":           FieldName,
	"nombre":         FieldName,
	"email":          FieldEmail,
	"role":           FieldRole,
	"puesto":         FieldRole,
	"senioritylevel": FieldSeniorityLevel,
	"seniority":      FieldSeniorityLevel,
	"currentproject": FieldCurrentProject,
	"proyectoactual": FieldCurrentProject,
	"skills":         FieldSkills,
	"resumelink":     FieldResumeLink,
	"cv":             FieldResumeLink,
	"status":         FieldStatus,
	"estado":         FieldStatus,
}

func foldKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FieldForKey resolves a header or JSON key (canonical or alias) to a Field.
func FieldForKey(key string) (Field, bool) {
	f, ok := fieldAliases[foldKey(key)]
	return f, ok
}

// IsDeletedStatus reports whether a Status cell marks the row as soft-deleted.
// A blank status is active.
func IsDeletedStatus(s string) bool {
	s = strings.TrimSpace(s)
	return s == StatusDeleted || s == legacyStatusDeleted
}

// IdentityKey normalizes an email for identity comparison.
func IdentityKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Record is one employee/request row.
//
// Extra holds columns found in the sheet header that are not part of Schema.
// They are returned to readers but cannot be written back.
type Record struct {
	Name           string
	Email          string
	Role           string
	SeniorityLevel string
	CurrentProject string
	Skills         string
	ResumeLink     string
	Status         string

	Extra map[string]string

	// ID is derived for display (Email or record-<index>); never a storage key.
	ID string
	// Instructions is set only on simulated writes and tells the operator
	// which manual spreadsheet edit would make the write real.
	Instructions string
}

// Get returns the value of a schema field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldRole:
		return r.Role
	case FieldSeniorityLevel:
		return r.SeniorityLevel
	case FieldCurrentProject:
		return r.CurrentProject
	case FieldSkills:
		return r.Skills
	case FieldResumeLink:
		return r.ResumeLink
	case FieldStatus:
		return r.Status
	}
	return ""
}

// Set assigns a schema field.
func (r *Record) Set(f Field, v string) {
	switch f {
	case FieldName:
		r.Name = v
	case FieldEmail:
		r.Email = v
	case FieldRole:
		r.Role = v
	case FieldSeniorityLevel:
		r.SeniorityLevel = v
	case FieldCurrentProject:
		r.CurrentProject = v
	case FieldSkills:
		r.Skills = v
	case FieldResumeLink:
		r.ResumeLink = v
	case FieldStatus:
		r.Status = v
	}
}

// Identity returns the normalized Email.
func (r Record) Identity() string { return IdentityKey(r.Email) }

// IsDeleted reports whether the record is soft-deleted.
func (r Record) IsDeleted() bool { return IsDeletedStatus(r.Status) }

// Clone returns a copy that does not share the Extra map.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON emits a flat object: schema fields in column order, then extra
// columns sorted by name, then id and instructions.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	put := func(k, v string) error {
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	for _, f := range Schema {
		if err := put(string(f), r.Get(f)); err != nil {
			return nil, err
		}
	}
	extras := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		if err := put(k, r.Extra[k]); err != nil {
			return nil, err
		}
	}
	if err := put("id", r.ID); err != nil {
		return nil, err
	}
	if r.Instructions != "" {
		if err := put("instructions", r.Instructions); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts canonical or alias keys. Non-string scalars are
// stringified; unknown keys land in Extra.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Record{}
	for k, v := range raw {
		s := Stringify(v)
		switch k {
		case "id":
			out.ID = s
			continue
		case "instructions":
			out.Instructions = s
			continue
		}
		if f, ok := FieldForKey(k); ok {
			out.Set(f, s)
			continue
		}
		if out.Extra == nil {
			out.Extra = map[string]string{}
		}
		out.Extra[k] = s
	}
	*r = out
	return nil
}

// Stringify renders a decoded JSON scalar as a cell value.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Patch is a partial update keyed by field. Only present keys are applied.
type Patch map[Field]string

// Apply returns a copy of r with the patch applied. Email is immutable and
// is never taken from the patch.
func (p Patch) Apply(r Record) Record {
	out := r.Clone()
	for f, v := range p {
		if f == FieldEmail {
			continue
		}
		out.Set(f, v)
	}
	return out
}
