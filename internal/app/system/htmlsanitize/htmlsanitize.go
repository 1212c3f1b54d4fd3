// Package htmlsanitize strips markup from untrusted cell values before they
// are written to the spreadsheet. Sheet cells are plain text and are later
// rendered by browsers, so any tags pasted into a form or an uploaded file
// are removed rather than escaped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute, keeping only text content.
var strict = bluemonday.StrictPolicy()

// StripTags returns s with all HTML removed. Entities produced by the policy
// are unescaped again so that "R&D" stays "R&D" in the sheet.
func StripTags(s string) string {
	if s == "" || IsPlainText(s) {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no HTML tags.
// Both '<' and '>' must be present for the string to be treated as markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
