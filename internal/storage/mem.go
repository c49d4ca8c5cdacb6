package storage

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/starford/adr/internal/models"
)

// Mem is an in-memory Provider. Directories exist once created with
// MkdirAll or implied by a written file.
type Mem struct {
	mu    sync.RWMutex
	files map[string]memFile
	dirs  map[string]struct{}
	now   func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// NewMem returns an empty in-memory provider.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]memFile),
		dirs:  map[string]struct{}{".": {}},
		now:   time.Now,
	}
}

func clean(p string) string {
	return path.Clean(strings.TrimPrefix(p, "/"))
}

// List returns the files directly under dir.
func (m *Mem) List(dir string) ([]models.FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d := clean(dir)
	if _, ok := m.dirs[d]; !ok {
		return nil, fmt.Errorf("storage: list %s: %w", dir, fs.ErrNotExist)
	}
	var out []models.FileMetadata
	for p, f := range m.files {
		if path.Dir(p) != d {
			continue
		}
		out = append(out, models.FileMetadata{Path: p, Checksum: checksum(f.data), ModTime: f.modTime})
	}
	return out, nil
}

// Read returns a copy of the stored bytes.
func (m *Mem) Read(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[clean(p)]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

// Write replaces the file at p.
func (m *Mem) Write(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(clean(p), content)
	return nil
}

// Create stores a new file, failing with fs.ErrExist if p is taken.
func (m *Mem) Create(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := clean(p)
	if _, ok := m.files[c]; ok {
		return fmt.Errorf("storage: create %s: %w", p, fs.ErrExist)
	}
	m.put(c, content)
	return nil
}

// Delete removes the file at p.
func (m *Mem) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := clean(p)
	if _, ok := m.files[c]; !ok {
		return fmt.Errorf("storage: delete %s: %w", p, fs.ErrNotExist)
	}
	delete(m.files, c)
	return nil
}

// Exists reports whether p is a stored file or known directory.
func (m *Mem) Exists(p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := clean(p)
	if _, ok := m.files[c]; ok {
		return true, nil
	}
	_, ok := m.dirs[c]
	return ok, nil
}

// MkdirAll records dir and its parents.
func (m *Mem) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addDirs(clean(dir))
	return nil
}

func (m *Mem) put(p string, content []byte) {
	m.addDirs(path.Dir(p))
	m.files[p] = memFile{data: append([]byte(nil), content...), modTime: m.now()}
}

func (m *Mem) addDirs(d string) {
	for {
		m.dirs[d] = struct{}{}
		if d == "." || d == "/" {
			return
		}
		d = path.Dir(d)
	}
}
