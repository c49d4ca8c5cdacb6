// Package storage defines the record-directory file-system abstraction.
package storage

import "github.com/starford/adr/internal/models"

// Provider is the interface for record file operations. All paths are
// slash-separated and relative to the provider root.
type Provider interface {
	// List returns metadata for every regular file directly under dir.
	// A missing dir yields an error matching fs.ErrNotExist.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces (or creates) the file at path.
	Write(path string, content []byte) error
	// Create writes a new file and fails with fs.ErrExist if path is taken.
	Create(path string, content []byte) error
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Delete removes the file at path.
	Delete(path string) error
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}
