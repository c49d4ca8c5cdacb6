// Package engine composes the allocator, slug, renderer, store and link
// manager into the record operations: init, new, list, link and check.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/editor"
	"github.com/starford/adr/internal/link"
	"github.com/starford/adr/internal/models"
	"github.com/starford/adr/internal/record"
	"github.com/starford/adr/internal/render"
)

// SeedTitle is the title of record 1, written by Init.
const SeedTitle = "Record architecture decisions"

// DefaultStatus is the status rendered into new records.
const DefaultStatus = "Accepted"

// Steps reported by PartialError.
const (
	StepLink = "link"
	StepEdit = "edit"
)

// PartialError reports a record that was persisted while a later step failed.
type PartialError struct {
	Record models.Record
	Step   string
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("record %s was created, but the %s step failed: %v", e.Record.Filename, e.Step, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Engine runs record operations. It holds no record state between calls.
// Writes through one Engine are serialized; separate processes are only
// detected by the store.
type Engine struct {
	mu sync.Mutex // guards writes to the record directory

	store    *record.Store
	links    *link.Manager
	template render.Source
	seed     render.Source
	editor   editor.Editor
	status   string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTemplate sets the template used for new records.
func WithTemplate(src render.Source) Option {
	return func(e *Engine) { e.template = src }
}

// WithSeedTemplate sets the template used for record 1.
func WithSeedTemplate(src render.Source) Option {
	return func(e *Engine) { e.seed = src }
}

// WithEditor sets the collaborator that receives each new record.
func WithEditor(ed editor.Editor) Option {
	return func(e *Engine) { e.editor = ed }
}

// WithStatus sets the status rendered into new records.
func WithStatus(status string) Option {
	return func(e *Engine) { e.status = status }
}

// WithClock overrides the date source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over store.
func New(store *record.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		template: render.Embedded(render.DefaultTemplate),
		seed:     render.Embedded(render.SeedTemplate),
		editor:   editor.None{},
		status:   DefaultStatus,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.links = link.NewManager(store, e.logger)
	return e
}

// Store returns the underlying record store.
func (e *Engine) Store() *record.Store { return e.store }

// Init creates the record directory and record 1. An existing directory is
// accepted only while it holds no records.
func (e *Engine) Init(ctx context.Context) (models.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	recs, err := e.store.List(ctx)
	switch {
	case err == nil && len(recs) > 0:
		return models.Record{}, apperr.New(apperr.ErrAlreadyInitialized,
			"%s already holds %d record(s)", e.store.Dir(), len(recs))
	case err != nil && !errors.Is(err, apperr.ErrUninitializedStore):
		return models.Record{}, err
	}

	if err := e.store.Init(ctx); err != nil {
		return models.Record{}, fmt.Errorf("engine: init: %w", err)
	}
	rec, err := e.create(ctx, 1, SeedTitle, e.seed)
	if err != nil {
		return models.Record{}, err
	}
	e.logger.Info("initialized record store",
		slog.String("dir", e.store.Dir()),
		slog.String("seed", rec.Filename))
	return rec, nil
}

// New creates the next record and, when supersedes is non-empty, links it
// to those records. Supersede targets are validated before anything is
// written. If writing links or running the editor fails afterwards the
// record stays and a *PartialError names the failed step.
func (e *Engine) New(ctx context.Context, title string, supersedes []string) (models.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Record{}, apperr.New(apperr.ErrMissingTitle, "a title is required for a new record")
	}
	rec, err := e.newLocked(ctx, title, supersedes)
	if err != nil {
		return rec, err
	}
	if err := e.editor.Edit(ctx, e.store.Path(rec)); err != nil {
		return rec, &PartialError{Record: rec, Step: StepEdit, Err: err}
	}
	return e.reload(ctx, rec), nil
}

// newLocked allocates, writes and links the record. The editor runs after
// the lock is released.
func (e *Engine) newLocked(ctx context.Context, title string, supersedes []string) (models.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.store.Initialized(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("engine: new: %w", err)
	}
	if !ok {
		return models.Record{}, apperr.New(apperr.ErrUninitializedStore,
			"no record directory at %s; run `adr init` first", e.store.Dir())
	}

	targets, err := e.links.Validate(ctx, 0, supersedes)
	if err != nil {
		return models.Record{}, err
	}

	id, err := e.store.NextID(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("engine: allocate id: %w", err)
	}
	rec, err := e.create(ctx, id, title, e.template)
	if err != nil {
		return models.Record{}, err
	}

	if err := e.links.Apply(ctx, rec, targets); err != nil {
		return rec, &PartialError{Record: rec, Step: StepLink, Err: err}
	}
	return rec, nil
}

// Link applies the supersede step to an existing record.
func (e *Engine) Link(ctx context.Context, id int, supersedes []string) (models.Record, error) {
	if len(supersedes) == 0 {
		return models.Record{}, apperr.New(apperr.ErrInvalidReference, "no records to supersede were given")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.Resolve(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	if err := e.links.ApplySupersedes(ctx, rec, supersedes); err != nil {
		return rec, err
	}
	return e.reload(ctx, rec), nil
}

// List returns every record in ascending id order.
func (e *Engine) List(ctx context.Context) ([]models.Record, error) {
	return e.store.List(ctx)
}

// Show returns a record and its full text.
func (e *Engine) Show(ctx context.Context, id int) (models.Record, string, error) {
	rec, err := e.store.Resolve(ctx, id)
	if err != nil {
		return models.Record{}, "", err
	}
	body, err := e.store.ReadBody(ctx, rec)
	if err != nil {
		return models.Record{}, "", err
	}
	return rec, body, nil
}

// Check reports supersede links whose counterpart is missing.
func (e *Engine) Check(ctx context.Context) ([]link.Drift, error) {
	recs, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return link.Check(recs), nil
}

func (e *Engine) create(ctx context.Context, id int, title string, src render.Source) (models.Record, error) {
	filename, err := e.store.Filename(id, title)
	if err != nil {
		return models.Record{}, err
	}
	tmpl, err := src.Template(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("engine: load template: %w", err)
	}
	rec := models.Record{ID: id, Title: title, Filename: filename, Status: e.status}
	content := render.Render(tmpl, render.Substitutions{
		ID:     id,
		Title:  title,
		Date:   e.now(),
		Status: e.status,
	})
	if err := e.store.Create(ctx, rec, content); err != nil {
		return models.Record{}, err
	}
	e.logger.Debug("created record", slog.Int("id", id), slog.String("file", filename))
	return rec, nil
}

// reload re-reads rec so callers see parsed status and links; the written
// record is returned unchanged if the read fails.
func (e *Engine) reload(ctx context.Context, rec models.Record) models.Record {
	fresh, err := e.store.Resolve(ctx, rec.ID)
	if err != nil {
		return rec
	}
	return fresh
}
