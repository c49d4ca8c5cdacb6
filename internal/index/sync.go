package index

import (
	"context"
	"log/slog"
	"sort"

	"github.com/starford/adr/internal/record"
)

// Changes lists the record files touched by a Sync.
type Changes struct {
	Created []string
	Updated []string
	Removed []string
}

// Empty reports whether the sync changed nothing.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Sync brings the index up to date with the record directory:
//   - new/changed records are parsed and upserted
//   - records removed from disk are deleted from the index
func Sync(ctx context.Context, db *DB, store *record.Store, logger *slog.Logger) (Changes, error) {
	var ch Changes

	recs, err := store.List(ctx)
	if err != nil {
		return ch, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return ch, err
	}

	disk := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		disk[rec.Filename] = struct{}{}

		old, known := checksums[rec.Filename]
		if known && old == rec.Checksum {
			continue
		}
		body, err := store.ReadBody(ctx, rec)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", rec.Filename), slog.String("error", err.Error()))
			continue
		}
		row, links := RowFromRecord(rec)
		if err := db.UpsertRecord(row, body, links); err != nil {
			logger.Warn("sync: index failed", slog.String("file", rec.Filename), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("file", rec.Filename))
		if known {
			ch.Updated = append(ch.Updated, rec.Filename)
		} else {
			ch.Created = append(ch.Created, rec.Filename)
		}
	}

	for f := range checksums {
		if _, ok := disk[f]; ok {
			continue
		}
		if err := db.DeleteRecord(f); err != nil {
			logger.Warn("sync: delete failed", slog.String("file", f), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("file", f))
		ch.Removed = append(ch.Removed, f)
	}
	sort.Strings(ch.Removed)

	return ch, nil
}
