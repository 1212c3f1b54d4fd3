package webhook

import (
	"bytes"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://rosterhub.local/schemas/sheet-change.json"

// sheetChangeSchema describes the payload the spreadsheet trigger sends.
const sheetChangeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sheetId", "eventType"],
  "properties": {
    "sheetId":   {"type": "string", "minLength": 1},
    "range":     {"type": "string"},
    "timestamp": {"type": "string"},
    "eventType": {"enum": ["edit", "insert", "delete"]},
    "userId":    {"type": "string"}
  }
}`

var changeSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(sheetChangeSchema))
	if err != nil {
		panic("webhook: parse schema: " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic("webhook: add schema: " + err.Error())
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		panic("webhook: compile schema: " + err.Error())
	}
	return sch
}

// decodePayload parses body as JSON. A parse failure is returned as is;
// the caller treats it differently from a shape violation.
func decodePayload(body []byte) (any, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(body))
}

// validatePayload checks a decoded payload against the sheet change schema.
func validatePayload(doc any) error {
	return changeSchema.Validate(doc)
}
