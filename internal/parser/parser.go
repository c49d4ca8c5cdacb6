// Package parser extracts title, status and supersede links from record text.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/adr/internal/models"
)

var (
	linkRe    = regexp.MustCompile(`(?m)^(Supersedes|Superseded by) the \[architecture decision record (\d+)\]\(([^)\s]+)\)`)
	headingRe = regexp.MustCompile(`^#\s+(?:\d+\.\s+)?(.+?)\s*$`)
	dateRe    = regexp.MustCompile(`^Date:\s*(\S.*?)\s*$`)
)

// StatusSuperseded is reported for records carrying a "Superseded by" line.
const StatusSuperseded = "Superseded"

// Result holds the output of parsing a record file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Status      string
	Date        string
	Links       []models.Link
}

// EffectiveStatus is Superseded when any superseded-by link is present,
// otherwise the declared status.
func (r *Result) EffectiveStatus() string {
	for _, l := range r.Links {
		if l.Direction == models.SupersededBy {
			return StatusSuperseded
		}
	}
	return r.Status
}

// Parse extracts front matter, title, status, date and link lines from raw bytes.
// Records are treated as opaque text apart from these markers, so Parse
// never fails on content it does not recognise.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Status:      deriveStatus(fm, body),
		Date:        deriveDate(fm, body),
		Links:       extractLinks(body),
	}
}

// splitFrontmatter separates YAML front matter (between leading --- delimiters)
// from the body. If no valid front matter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

func extractLinks(body string) []models.Link {
	matches := linkRe.FindAllStringSubmatch(body, -1)
	out := make([]models.Link, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		dir := models.Supersedes
		if m[1] == "Superseded by" {
			dir = models.SupersededBy
		}
		out = append(out, models.Link{Direction: dir, TargetID: id, Target: m[3]})
	}
	return out
}

// deriveTitle returns the front-matter "title" if present, otherwise the
// first H1 heading with any "N. " numbering stripped.
func deriveTitle(fm map[string]any, body string) string {
	if s := fmString(fm, "title"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

// deriveStatus returns the front-matter "status" or the first plain line of
// the "## Status" section.
func deriveStatus(fm map[string]any, body string) string {
	if s := fmString(fm, "status"); s != "" {
		return s
	}
	inStatus := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if inStatus {
				return ""
			}
			inStatus = strings.EqualFold(strings.TrimSpace(strings.TrimLeft(trimmed, "#")), "status")
			continue
		}
		if !inStatus || trimmed == "" || linkRe.MatchString(trimmed) {
			continue
		}
		return trimmed
	}
	return ""
}

func deriveDate(fm map[string]any, body string) string {
	if s := fmString(fm, "date"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		if m := dateRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

func fmString(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	switch v := fm[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		// Numbers and booleans keep their text form.
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
