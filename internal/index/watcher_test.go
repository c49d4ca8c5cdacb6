package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/adr/internal/record"
	"github.com/starford/adr/internal/storage"
)

// watcherTestEnv sets up a record directory on disk, its store, and a DB.
func watcherTestEnv(t *testing.T) (string, *record.Store, *DB) {
	t.Helper()
	root := t.TempDir()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	store := record.New(fs, record.DefaultOptions())
	if err := store.Init(t.Context()); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(root, "doc", "adr"), store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewRecordIndexed(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, dir, discardLogger(), func(kind, filename string) {
		mu.Lock()
		events = append(events, kind+":"+filename)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "0001-new.md"), []byte("# 1. New\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("0001-new.md")
		return cs != ""
	}, "new record not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == EventCreated+":0001-new.md" {
				return true
			}
		}
		return false
	}, "expected created:0001-new.md callback")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	logger := discardLogger()

	_ = os.WriteFile(filepath.Join(dir, "0001-gone.md"), []byte("# 1. Gone\n"), 0o644)
	if _, err := Sync(t.Context(), db, store, logger); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum("0001-gone.md"); cs == "" {
		t.Fatal("precondition: record should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "0001-gone.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("0001-gone.md")
		return cs == ""
	}, "deleted record still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	logger := discardLogger()

	_ = os.WriteFile(filepath.Join(dir, "0001-old.md"), []byte("# 1. Rename\n"), 0o644)
	if _, err := Sync(t.Context(), db, store, logger); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "0001-old.md"), filepath.Join(dir, "0001-renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("0001-old.md")
		newCS, _ := db.GetChecksum("0001-renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename: old file should be removed and new file indexed")
}
