// Package link maintains the mirrored "Supersedes" / "Superseded by" lines
// between records.
package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/models"
)

// SupersedesLine is written into the record that replaces target.
func SupersedesLine(target models.Record) string {
	return fmt.Sprintf("Supersedes the [architecture decision record %d](%s)", target.ID, target.Filename)
}

// SupersededByLine is written into a record replaced by by.
func SupersededByLine(by models.Record) string {
	return fmt.Sprintf("Superseded by the [architecture decision record %d](%s)", by.ID, by.Filename)
}

// Store is the part of the record store the manager works with.
type Store interface {
	Resolve(ctx context.Context, id int) (models.Record, error)
	AppendLine(ctx context.Context, rec models.Record, line string) error
}

// Manager writes supersede links in both directions.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, logger: logger}
}

// ParseID parses a target reference such as "5". A well-formed number too
// large for an id names no record and is reported as unknown.
func ParseID(ref string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(ref))
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(strings.TrimSpace(ref), "-") {
		return 0, apperr.New(apperr.ErrUnknownRecord, "record %s does not exist", strings.TrimSpace(ref))
	}
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.ErrInvalidReference, "%q is not a record id", ref)
	}
	return id, nil
}

// Validate parses every reference, then resolves every id, and returns the
// targets in the order given. Nothing is written. selfID is the id of the
// superseding record (0 when it does not exist yet) and may not be a target.
func (m *Manager) Validate(ctx context.Context, selfID int, refs []string) ([]models.Record, error) {
	ids := make([]int, len(refs))
	for i, ref := range refs {
		id, err := ParseID(ref)
		if err != nil {
			return nil, err
		}
		if id == selfID {
			return nil, apperr.New(apperr.ErrInvalidReference, "record %d cannot supersede itself", id)
		}
		ids[i] = id
	}

	targets := make([]models.Record, len(ids))
	for i, id := range ids {
		rec, err := m.store.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		targets[i] = rec
	}
	return targets, nil
}

// Apply writes the link pair for each already validated target, in order.
// Repeated calls write the lines again; nothing is deduplicated.
func (m *Manager) Apply(ctx context.Context, rec models.Record, targets []models.Record) error {
	for _, target := range targets {
		if err := m.store.AppendLine(ctx, rec, SupersedesLine(target)); err != nil {
			return fmt.Errorf("link: record %d supersedes %d: %w", rec.ID, target.ID, err)
		}
		if err := m.store.AppendLine(ctx, target, SupersededByLine(rec)); err != nil {
			return fmt.Errorf("link: record %d superseded by %d: %w", target.ID, rec.ID, err)
		}
		m.logger.Debug("link: superseded",
			slog.Int("record", rec.ID),
			slog.Int("target", target.ID),
			slog.String("target_file", target.Filename))
	}
	return nil
}

// ApplySupersedes validates every reference before touching any file, so a
// single bad id leaves all records unchanged.
func (m *Manager) ApplySupersedes(ctx context.Context, rec models.Record, refs []string) error {
	targets, err := m.Validate(ctx, rec.ID, refs)
	if err != nil {
		return err
	}
	return m.Apply(ctx, rec, targets)
}
