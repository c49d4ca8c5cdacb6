package render

import (
	"context"
	"embed"
	"fmt"
	"os"
)

//go:embed templates/*.md
var bundled embed.FS

// Names of the bundled templates.
const (
	DefaultTemplate = "template.md"
	SeedTemplate    = "seed.md"
)

// Source provides the raw template text for new records.
type Source interface {
	Template(ctx context.Context) (string, error)
}

// Embedded is a template bundled with the binary, addressed by name.
type Embedded string

// Template returns the bundled template content.
func (e Embedded) Template(_ context.Context) (string, error) {
	content, err := bundled.ReadFile("templates/" + string(e))
	if err != nil {
		return "", fmt.Errorf("render: bundled template %s: %w", string(e), err)
	}
	return string(content), nil
}

// File reads the template from a path on disk at each call, so edits to
// the template apply to the next record without restarting anything.
type File string

// Template returns the file content.
func (f File) Template(_ context.Context) (string, error) {
	content, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("render: template file: %w", err)
	}
	return string(content), nil
}

// Static is a fixed in-memory template.
type Static string

// Template returns s.
func (s Static) Template(_ context.Context) (string, error) { return string(s), nil }
