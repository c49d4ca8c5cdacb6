// Package record implements the directory-backed record store and the
// identifier allocator on top of a storage.Provider.
package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/models"
	"github.com/starford/adr/internal/parser"
	"github.com/starford/adr/internal/slug"
	"github.com/starford/adr/internal/storage"
)

// Options configure where records live and how their filenames are built.
type Options struct {
	Dir       string    // record directory relative to the provider root
	Extension string    // without the leading dot
	Width     int       // minimum zero-padded width of the id
	Case      slug.Case // slug casing policy
}

// DefaultOptions mirrors the layout created by `adr init`.
func DefaultOptions() Options {
	return Options{Dir: "doc/adr", Extension: "md", Width: 4, Case: slug.Acronym}
}

// Store is the record directory. It keeps no state between calls: every
// operation rebuilds what it needs from the directory listing.
type Store struct {
	fs      storage.Provider
	opts    Options
	pattern *regexp.Regexp
}

// entry is a record file seen in the directory listing.
type entry struct {
	id   int
	name string
	meta models.FileMetadata
}

// New creates a Store over p.
func New(p storage.Provider, opts Options) *Store {
	def := DefaultOptions()
	if opts.Dir == "" {
		opts.Dir = def.Dir
	}
	if opts.Extension == "" {
		opts.Extension = def.Extension
	}
	opts.Extension = strings.TrimPrefix(opts.Extension, ".")
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Case == "" {
		opts.Case = def.Case
	}
	return &Store{
		fs:      p,
		opts:    opts,
		pattern: regexp.MustCompile(`^(\d+)-(.+)\.` + regexp.QuoteMeta(opts.Extension) + `$`),
	}
}

// Dir returns the record directory relative to the provider root.
func (s *Store) Dir() string { return s.opts.Dir }

// Path returns the provider path of rec.
func (s *Store) Path(rec models.Record) string { return path.Join(s.opts.Dir, rec.Filename) }

// Initialized reports whether the record directory exists.
func (s *Store) Initialized(_ context.Context) (bool, error) {
	return s.fs.Exists(s.opts.Dir)
}

// Init creates the record directory.
func (s *Store) Init(_ context.Context) error {
	return s.fs.MkdirAll(s.opts.Dir)
}

// Filename builds "<zero-padded id>-<slug>.<ext>" for a new record.
// Ids wider than the pad width are rendered in full.
func (s *Store) Filename(id int, title string) (string, error) {
	sl, err := slug.Make(title, s.opts.Case)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d-%s.%s", s.opts.Width, id, sl, s.opts.Extension), nil
}

// ParseFilename returns the id encoded in a record filename.
func (s *Store) ParseFilename(name string) (int, bool) {
	m := s.pattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// scan lists the record files sorted by id, then filename. A missing
// directory is reported as ErrUninitializedStore.
func (s *Store) scan(ctx context.Context) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metas, err := s.fs.List(s.opts.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.ErrUninitializedStore, "no record directory at %s; run `adr init` first", s.opts.Dir)
		}
		return nil, fmt.Errorf("record: list: %w", err)
	}
	out := make([]entry, 0, len(metas))
	for _, m := range metas {
		name := path.Base(m.Path)
		id, ok := s.ParseFilename(name)
		if !ok {
			continue
		}
		out = append(out, entry{id: id, name: name, meta: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].id != out[j].id {
			return out[i].id < out[j].id
		}
		return out[i].name < out[j].name
	})
	return out, nil
}

// List returns every record in ascending id order with its title, status
// and links parsed from the body.
func (s *Store) List(ctx context.Context) ([]models.Record, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(entries))
	for _, e := range entries {
		rec, err := s.load(e)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Resolve returns the record with the given id.
func (s *Store) Resolve(ctx context.Context, id int) (models.Record, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return models.Record{}, err
	}
	for _, e := range entries {
		if e.id == id {
			return s.load(e)
		}
	}
	return models.Record{}, apperr.New(apperr.ErrUnknownRecord, "no record with id %d in %s", id, s.opts.Dir)
}

// Create persists a new record. It fails with ErrDuplicateRecord when the
// filename is taken or another file already carries the same id, which is
// how two invocations racing on the same next id are told apart.
func (s *Store) Create(ctx context.Context, rec models.Record, content string) error {
	entries, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.id == rec.ID {
			return apperr.New(apperr.ErrDuplicateRecord, "record %d already exists as %s", rec.ID, e.name)
		}
	}
	if err := s.fs.Create(s.Path(rec), []byte(content)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperr.New(apperr.ErrDuplicateRecord, "record file %s already exists", rec.Filename)
		}
		return fmt.Errorf("record: create %s: %w", rec.Filename, err)
	}
	return s.settleRace(ctx, rec)
}

// settleRace re-scans after a create. If another writer claimed the same id
// under a different slug in the meantime, the lexically smaller filename
// keeps the id and the other file is removed by its own writer, so exactly
// one of two racing invocations succeeds.
func (s *Store) settleRace(ctx context.Context, rec models.Record) error {
	entries, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.id != rec.ID || e.name >= rec.Filename {
			continue
		}
		if err := s.fs.Delete(s.Path(rec)); err != nil {
			return fmt.Errorf("record: withdraw %s: %w", rec.Filename, err)
		}
		return apperr.New(apperr.ErrDuplicateRecord, "record %d was claimed concurrently as %s", rec.ID, e.name)
	}
	return nil
}

// ReadBody returns the full text of rec.
func (s *Store) ReadBody(_ context.Context, rec models.Record) (string, error) {
	data, err := s.fs.Read(s.Path(rec))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.New(apperr.ErrUnknownRecord, "record file %s is missing", rec.Filename)
		}
		return "", fmt.Errorf("record: read %s: %w", rec.Filename, err)
	}
	return string(data), nil
}

// AppendLine adds line at the end of rec. Existing bytes are kept as they
// are; a newline is inserted first only if the file does not end with one.
func (s *Store) AppendLine(ctx context.Context, rec models.Record, line string) error {
	body, err := s.ReadBody(ctx, rec)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.Grow(len(body) + len(line) + 2)
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(line)
	b.WriteByte('\n')
	if err := s.fs.Write(s.Path(rec), []byte(b.String())); err != nil {
		return fmt.Errorf("record: append to %s: %w", rec.Filename, err)
	}
	return nil
}

func (s *Store) load(e entry) (models.Record, error) {
	data, err := s.fs.Read(e.meta.Path)
	if err != nil {
		return models.Record{}, fmt.Errorf("record: read %s: %w", e.name, err)
	}
	res := parser.Parse(data)
	title := res.Title
	if title == "" {
		title = titleFromName(e.name)
	}
	return models.Record{
		ID:       e.id,
		Title:    title,
		Filename: e.name,
		Status:   res.EffectiveStatus(),
		Date:     res.Date,
		Links:    res.Links,
		Checksum: e.meta.Checksum,
		ModTime:  e.meta.ModTime,
	}, nil
}

// titleFromName recovers a readable title from "0005-some-title.md".
func titleFromName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if i := strings.IndexByte(base, '-'); i >= 0 {
		base = base[i+1:]
	}
	return strings.ReplaceAll(base, "-", " ")
}
