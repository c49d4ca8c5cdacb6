// Package render fills record templates with their substitution values.
package render

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used for the {{date}} placeholder.
const DateLayout = "2006-01-02"

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_]+)\s*\}\}`)

// Substitutions are the values for the recognised placeholders:
// {{id}}, {{title}}, {{date}}, {{status}}, {{supersedes}} and {{superseded_by}}.
type Substitutions struct {
	ID           int
	Title        string
	Date         time.Time
	Status       string
	Supersedes   []string // rendered one per line
	SupersededBy []string
}

func (s Substitutions) lookup(name string) (string, bool) {
	switch name {
	case "id":
		return strconv.Itoa(s.ID), true
	case "title":
		return s.Title, true
	case "date":
		if s.Date.IsZero() {
			return "", true
		}
		return s.Date.Format(DateLayout), true
	case "status":
		return s.Status, true
	case "supersedes":
		return strings.Join(s.Supersedes, "\n"), true
	case "superseded_by":
		return strings.Join(s.SupersededBy, "\n"), true
	}
	return "", false
}

// Render substitutes every recognised placeholder in tmpl. Unknown
// placeholders are left verbatim so templates can carry illustrative text.
func Render(tmpl string, s Substitutions) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := s.lookup(name); ok {
			return v
		}
		return m
	})
}
