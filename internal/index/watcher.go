package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/adr/internal/record"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, filename string)

// settleDelay batches the burst of events a single atomic write produces
// (temp create, write, rename) into one sync.
const settleDelay = 150 * time.Millisecond

// Watch starts an fsnotify watcher on the record directory dir and
// re-syncs the index after changes to record files until ctx is cancelled.
// It calls cb (if non-nil) once for each record the sync touched.
func Watch(ctx context.Context, db *DB, store *record.Store, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(settleDelay)
			timerCh = timer.C
			return
		}
		timer.Reset(settleDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			ch, err := Sync(ctx, db, store, logger)
			if err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			notify(ch, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if _, isRecord := store.ParseFilename(name); !isRecord {
				continue
			}
			logger.Debug("watcher: event", slog.String("file", name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func notify(ch Changes, cb EventCallback) {
	if cb == nil {
		return
	}
	for _, f := range ch.Created {
		cb(EventCreated, f)
	}
	for _, f := range ch.Updated {
		cb(EventUpdated, f)
	}
	for _, f := range ch.Removed {
		cb(EventDeleted, f)
	}
}
