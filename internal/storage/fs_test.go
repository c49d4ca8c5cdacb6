package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte("# 1. Hello\nWorld\n")
	if err := s.Write("doc/adr/0001-hello.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("doc/adr/0001-hello.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestCreate_RefusesExisting(t *testing.T) {
	s := tempStore(t)
	if err := s.Create("doc/adr/0002-a.md", []byte("first")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create("doc/adr/0002-a.md", []byte("second"))
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("err = %v, want fs.ErrExist", err)
	}
	got, _ := s.Read("doc/adr/0002-a.md")
	if string(got) != "first" {
		t.Errorf("existing file overwritten: %q", got)
	}
}

func TestList_FlatAndSkipsTemp(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("doc/adr/0001-a.md", []byte("a"))
	_ = s.Write("doc/adr/0002-b.md", []byte("b"))
	_ = s.Write("doc/adr/sub/0003-c.md", []byte("c"))
	_ = os.WriteFile(filepath.Join(s.root, "doc", "adr", ".adr-tmp-123"), []byte("x"), 0o644)

	items, err := s.List("doc/adr")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if filepath.Dir(it.Path) != "doc/adr" || it.Checksum == "" {
			t.Errorf("unexpected item %+v", it)
		}
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist reading deleted file, got %v", err)
	}
}

func TestList_MissingDir(t *testing.T) {
	s := tempStore(t)
	if _, err := s.List("doc/adr"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestExists(t *testing.T) {
	s := tempStore(t)
	ok, err := s.Exists("doc/adr")
	if err != nil || ok {
		t.Fatalf("Exists before mkdir = %v, %v", ok, err)
	}
	if err := s.MkdirAll("doc/adr"); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if ok, _ := s.Exists("doc/adr"); !ok {
		t.Error("dir should exist after MkdirAll")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := s.Create(p, []byte("x")); err == nil {
			t.Errorf("expected error for create of %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".adr-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "adr-test-*")
	_ = f.Close()
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestWrite_KeepsFileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := s.Create("doc/adr/0001-a.md", []byte("# 1. A\n")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	abs := filepath.Join(dir, "doc", "adr", "0001-a.md")
	if err := os.Chmod(abs, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := s.Write("doc/adr/0001-a.md", []byte("# 1. A\n\nmore\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o640 {
		t.Errorf("mode after rewrite = %o, want 640", got)
	}

	if err := s.Write("doc/adr/0002-b.md", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err = os.Stat(filepath.Join(dir, "doc", "adr", "0002-b.md"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o044 == 0 {
		t.Errorf("new file mode = %o, want group/other readable", info.Mode().Perm())
	}
}
