package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/adr/internal/apperr"
)

type runner struct {
	t      *testing.T
	cfg    *Config
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Store.Root = t.TempDir()
	return &runner{t: t, cfg: cfg}
}

// run executes op and returns what it printed.
func (r *runner) run(op Op) (string, error) {
	r.t.Helper()
	r.stdout.Reset()
	err := Run(context.Background(), op, WithConfig(r.cfg), WithIO(strings.NewReader(""), &r.stdout, &r.stderr))
	return r.stdout.String(), err
}

func (r *runner) mustRun(op Op) string {
	r.t.Helper()
	out, err := r.run(op)
	if err != nil {
		r.t.Fatalf("%T: %v (stderr: %s)", op, err, r.stderr.String())
	}
	return out
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background(), ListOp{}); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_InitNewList(t *testing.T) {
	r := newRunner(t)

	if out := r.mustRun(InitOp{}); out != "doc/adr/0001-record-architecture-decisions.md\n" {
		t.Errorf("init output = %q", out)
	}
	for _, title := range []string{"An ADR", "Yet another adr"} {
		r.mustRun(NewOp{Title: title, NoEdit: true})
	}

	out := r.mustRun(ListOp{})
	want := "0001-record-architecture-decisions.md\n0002-an-ADR.md\n0003-yet-another-adr.md\n"
	if out != want {
		t.Errorf("list = %q, want %q", out, want)
	}

	long := r.mustRun(ListOp{Long: true})
	if !strings.HasPrefix(long, "ID") || !strings.Contains(long, "Yet another adr") {
		t.Errorf("long list = %q", long)
	}
}

func TestRun_NewSupersedesAndCheck(t *testing.T) {
	r := newRunner(t)
	r.mustRun(InitOp{})
	r.mustRun(NewOp{Title: "Old way", NoEdit: true})

	out := r.mustRun(NewOp{Title: "New way", Supersedes: []string{"2"}, NoEdit: true})
	if out != "doc/adr/0003-new-way.md\n" {
		t.Errorf("new output = %q", out)
	}

	show := r.mustRun(ShowOp{ID: 2})
	if !strings.Contains(show, "Superseded by the [architecture decision record 3](0003-new-way.md)\n") {
		t.Errorf("record 2 = %q", show)
	}
	if out := r.mustRun(CheckOp{}); out != "" {
		t.Errorf("check output = %q", out)
	}

	// Remove the back-reference by hand.
	p := filepath.Join(r.cfg.Store.Root, "doc", "adr", "0002-old-way.md")
	if err := os.WriteFile(p, []byte("# 2. Old way\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := r.run(CheckOp{})
	if !errors.Is(err, ErrDrift) {
		t.Fatalf("expected ErrDrift, got %v", err)
	}
	if !strings.Contains(out, "0003-new-way.md") {
		t.Errorf("check output = %q", out)
	}
}

func TestRun_Link(t *testing.T) {
	r := newRunner(t)
	r.mustRun(InitOp{})
	r.mustRun(NewOp{Title: "Second", NoEdit: true})

	out := r.mustRun(LinkOp{ID: 2, Supersedes: []string{"1"}})
	if out != "0002-second.md supersedes 1\n" {
		t.Errorf("link output = %q", out)
	}
	if _, err := r.run(LinkOp{ID: 2, Supersedes: []string{"9"}}); !errors.Is(err, apperr.ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	r := newRunner(t)
	if _, err := r.run(NewOp{Title: "Too early", NoEdit: true}); !errors.Is(err, apperr.ErrUninitializedStore) {
		t.Errorf("expected ErrUninitializedStore, got %v", err)
	}
	r.mustRun(InitOp{})
	if _, err := r.run(InitOp{}); !errors.Is(err, apperr.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
	if _, err := r.run(NewOp{NoEdit: true}); !errors.Is(err, apperr.ErrMissingTitle) {
		t.Errorf("expected ErrMissingTitle, got %v", err)
	}
	if _, err := r.run(ShowOp{ID: 4}); !errors.Is(err, apperr.ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestRun_ServeNeedsInit(t *testing.T) {
	r := newRunner(t)
	if _, err := r.run(ServeOp{}); !errors.Is(err, apperr.ErrUninitializedStore) {
		t.Errorf("expected ErrUninitializedStore, got %v", err)
	}
	if _, err := r.run(MCPOp{}); !errors.Is(err, apperr.ErrUninitializedStore) {
		t.Errorf("expected ErrUninitializedStore, got %v", err)
	}
}

func TestRun_CustomTemplateAndStatus(t *testing.T) {
	r := newRunner(t)
	tmpl := filepath.Join(r.cfg.Store.Root, "tmpl.md")
	if err := os.WriteFile(tmpl, []byte("# {{id}}. {{title}}\n\nStatus: {{status}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r.cfg.Template.Path = "tmpl.md"
	r.cfg.Template.Status = "Proposed"

	r.mustRun(InitOp{})
	r.mustRun(NewOp{Title: "Try it", NoEdit: true})

	if out := r.mustRun(ShowOp{ID: 2}); out != "# 2. Try it\n\nStatus: Proposed\n" {
		t.Errorf("record = %q", out)
	}
}

func TestRun_Help(t *testing.T) {
	r := newRunner(t)
	out := r.mustRun(HelpOp{})
	for _, cmd := range []string{"init", "new", "list", "link", "show", "check", "serve", "mcp"} {
		if !strings.Contains(out, "\n  "+cmd) {
			t.Errorf("help misses %q", cmd)
		}
	}
}
