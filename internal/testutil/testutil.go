// Package testutil provides shared test helpers for setting up record stores
// and indexes.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/adr/internal/engine"
	"github.com/starford/adr/internal/index"
	"github.com/starford/adr/internal/record"
	"github.com/starford/adr/internal/storage"
)

// Today is the fixed date engines built here render into records.
var Today = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "adr-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestProject creates a temporary project directory with a storage.FS.
func TestProject(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Engine returns an engine with the default layout over p and a fixed clock.
func Engine(t *testing.T, p storage.Provider, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithClock(func() time.Time { return Today })}, opts...)
	return engine.New(record.New(p, record.DefaultOptions()), opts...)
}

// InitializedEngine returns an in-memory engine after `init`, so the next
// record gets id 2.
func InitializedEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *storage.Mem) {
	t.Helper()
	mem := storage.NewMem()
	e := Engine(t, mem, opts...)
	if _, err := e.Init(t.Context()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return e, mem
}
