package storage

import (
	"errors"
	"io/fs"
	"testing"
)

func TestMem_CreateListRead(t *testing.T) {
	m := NewMem()
	if _, err := m.List("doc/adr"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("List on missing dir err = %v", err)
	}
	if err := m.Create("doc/adr/0001-a.md", []byte("a")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Create("doc/adr/0001-a.md", []byte("b")); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second Create err = %v, want fs.ErrExist", err)
	}
	_ = m.Write("doc/adr/nested/x.md", []byte("x"))

	items, err := m.List("doc/adr")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "doc/adr/0001-a.md" {
		t.Errorf("items = %+v", items)
	}

	if err := m.Delete("doc/adr/nested/x.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete("doc/adr/nested/x.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("second Delete err = %v", err)
	}

	data, _ := m.Read("doc/adr/0001-a.md")
	data[0] = 'z'
	again, _ := m.Read("doc/adr/0001-a.md")
	if string(again) != "a" {
		t.Errorf("Read must return a copy, stored = %q", again)
	}
}

func TestMem_ExistsForDirsAndFiles(t *testing.T) {
	m := NewMem()
	_ = m.MkdirAll("doc/adr")
	for _, p := range []string{"doc", "doc/adr"} {
		if ok, _ := m.Exists(p); !ok {
			t.Errorf("Exists(%q) = false", p)
		}
	}
	if ok, _ := m.Exists("doc/adr/0001-a.md"); ok {
		t.Error("file should not exist yet")
	}
}
