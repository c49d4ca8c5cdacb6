// Package recordservice serves the long-running modes: writes go through
// the engine, reads of lists, the graph and search come from the index.
package recordservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/adr/internal/engine"
	"github.com/starford/adr/internal/index"
	"github.com/starford/adr/internal/link"
	"github.com/starford/adr/internal/models"
	"github.com/starford/adr/internal/parser"
)

// RecordDetail is the full representation of a record.
type RecordDetail struct {
	ID           int            `json:"id"`
	Filename     string         `json:"filename"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date,omitempty"`
	Content      string         `json:"content"`
	Checksum     string         `json:"checksum"`
	Links        []models.Link  `json:"links"`
	SupersededBy []int          `json:"superseded_by"`
	Frontmatter  map[string]any `json:"frontmatter,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Service coordinates the engine and the index.
type Service struct {
	engine *engine.Engine
	db     *index.DB
	logger *slog.Logger
}

// NewService creates a new record service.
func NewService(e *engine.Engine, db *index.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{engine: e, db: db, logger: logger}
}

// Refresh re-syncs the index with the record directory.
func (s *Service) Refresh(ctx context.Context) (index.Changes, error) {
	return index.Sync(ctx, s.db, s.engine.Store(), s.logger)
}

// refreshAfterWrite keeps reads consistent without waiting for the watcher.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("index refresh failed", slog.String("error", err.Error()))
	}
}

// GetRecord reads a record from the directory and enriches it with the
// records that supersede it.
func (s *Service) GetRecord(ctx context.Context, id int) (*RecordDetail, error) {
	rec, body, err := s.engine.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(rec, body)
}

// ListRecords returns indexed records, optionally filtered by status.
func (s *Service) ListRecords(_ context.Context, status string) ([]index.RecordRow, error) {
	return s.db.ListRecords(status)
}

// CreateRecord creates the next record and links it to supersedes. A
// *engine.PartialError is returned together with the created record.
func (s *Service) CreateRecord(ctx context.Context, title string, supersedes []string) (*RecordDetail, error) {
	rec, err := s.engine.New(ctx, title, supersedes)
	var partial *engine.PartialError
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}
	s.refreshAfterWrite(ctx)

	detail, derr := s.GetRecord(ctx, rec.ID)
	if derr != nil {
		return nil, errors.Join(err, derr)
	}
	return detail, err
}

// Supersede links an existing record to the records it replaces.
func (s *Service) Supersede(ctx context.Context, id int, targets []string) (*RecordDetail, error) {
	rec, err := s.engine.Link(ctx, id, targets)
	if err != nil {
		if rec.ID != 0 {
			s.refreshAfterWrite(ctx)
		}
		return nil, err
	}
	s.refreshAfterWrite(ctx)
	return s.GetRecord(ctx, rec.ID)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all records and supersede edges.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphEdge, error) {
	return s.db.Graph()
}

// Check reports link drift from the index.
func (s *Service) Check(_ context.Context) ([]link.Drift, error) {
	d, err := s.db.Drift()
	return nonNilSlice(d), err
}

func (s *Service) buildDetail(rec models.Record, body string) (*RecordDetail, error) {
	by, err := s.db.SupersededBy(rec.ID)
	if err != nil {
		return nil, err
	}
	res := parser.Parse([]byte(body))
	return &RecordDetail{
		ID:           rec.ID,
		Filename:     rec.Filename,
		Title:        rec.Title,
		Status:       rec.Status,
		Date:         rec.Date,
		Content:      body,
		Checksum:     rec.Checksum,
		Links:        nonNilSlice(rec.Links),
		SupersededBy: nonNilSlice(by),
		Frontmatter:  res.Frontmatter,
		UpdatedAt:    rec.ModTime,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
