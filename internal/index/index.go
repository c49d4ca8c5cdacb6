package index

import "github.com/starford/adr/internal/link"

// RecordIndex is the read/write surface of the index used by the API and
// the watcher.
type RecordIndex interface {
	UpsertRecord(row RecordRow, body string, links []LinkRow) error
	DeleteRecord(filename string) error
	GetChecksum(filename string) (string, error)
	AllChecksums() (map[string]string, error)
	GetRecord(id int) (*RecordRow, error)
	ListRecords(status string) ([]RecordRow, error)
	SupersededBy(id int) ([]int, error)
	Graph() ([]GraphNode, []GraphEdge, error)
	Drift() ([]link.Drift, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ RecordIndex = (*DB)(nil)
