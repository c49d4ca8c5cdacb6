package parser

import (
	"testing"

	"github.com/starford/adr/internal/models"
)

const sample = `# 9. This supersedes number 5 6 8

Date: 2026-10-19

## Status

Accepted

## Context

Some text mentioning the architecture decision record 3 in passing.

Supersedes the [architecture decision record 5](0005-to-be-superseded.md)
Supersedes the [architecture decision record 6](0006-some-functional-name.md)
`

func TestParse_MarkdownRecord(t *testing.T) {
	r := Parse([]byte(sample))
	if r.Title != "This supersedes number 5 6 8" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Status != "Accepted" {
		t.Errorf("status = %q", r.Status)
	}
	if r.Date != "2026-10-19" {
		t.Errorf("date = %q", r.Date)
	}
	if len(r.Links) != 2 {
		t.Fatalf("links = %+v", r.Links)
	}
	want := models.Link{Direction: models.Supersedes, TargetID: 6, Target: "0006-some-functional-name.md"}
	if r.Links[1] != want {
		t.Errorf("links[1] = %+v, want %+v", r.Links[1], want)
	}
	if r.EffectiveStatus() != "Accepted" {
		t.Errorf("effective status = %q", r.EffectiveStatus())
	}
}

func TestParse_SupersededByOverridesStatus(t *testing.T) {
	input := "# 5. To be superseded\n\n## Status\n\nAccepted\n\nSuperseded by the [architecture decision record 9](0009-x.md)\n"
	r := Parse([]byte(input))
	if len(r.Links) != 1 || r.Links[0].Direction != models.SupersededBy || r.Links[0].TargetID != 9 {
		t.Fatalf("links = %+v", r.Links)
	}
	if r.EffectiveStatus() != StatusSuperseded {
		t.Errorf("effective status = %q", r.EffectiveStatus())
	}
}

func TestParse_StatusSkipsLinkLines(t *testing.T) {
	input := "# 2. X\n\n## Status\n\nSuperseded by the [architecture decision record 3](0003-y.md)\n\n## Context\nctx\n"
	r := Parse([]byte(input))
	if r.Status != "" {
		t.Errorf("status = %q, want empty", r.Status)
	}
}

func TestParse_Frontmatter(t *testing.T) {
	input := []byte("---\ntitle: Use YAML\nstatus: proposed\ndate: 2026-01-02\n---\n# 3. Ignored heading\n")
	r := Parse(input)
	if r.Title != "Use YAML" || r.Status != "proposed" || r.Date != "2026-01-02" {
		t.Errorf("got title=%q status=%q date=%q", r.Title, r.Status, r.Date)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\n# 4. Body\n")
	r := Parse(input)
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Title != "Body" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestExtractLinks_IgnoresIndentedAndMalformed(t *testing.T) {
	body := "  Supersedes the [architecture decision record 2](0002-a.md)\n" +
		"Supersedes the [architecture decision record two](0002-a.md)\n" +
		"supersedes the [architecture decision record 2](0002-a.md)\n"
	if links := extractLinks(body); len(links) != 0 {
		t.Errorf("expected no links, got %+v", links)
	}
}
