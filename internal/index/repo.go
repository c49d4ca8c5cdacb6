package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/link"
	"github.com/starford/adr/internal/models"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	ID        int       `json:"id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Date      string    `json:"date,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkRow is one supersede line of a record.
type LinkRow struct {
	Direction models.Direction
	TargetID  int
	Target    string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// GraphNode is a record in the supersede graph.
type GraphNode struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// GraphEdge points from a record to the record it supersedes.
type GraphEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// RowFromRecord converts a parsed record into its index row and links.
func RowFromRecord(rec models.Record) (RecordRow, []LinkRow) {
	row := RecordRow{
		ID:        rec.ID,
		Filename:  rec.Filename,
		Title:     rec.Title,
		Status:    rec.Status,
		Date:      rec.Date,
		Checksum:  rec.Checksum,
		UpdatedAt: rec.ModTime,
	}
	links := make([]LinkRow, 0, len(rec.Links))
	for _, l := range rec.Links {
		links = append(links, LinkRow{Direction: l.Direction, TargetID: l.TargetID, Target: l.Target})
	}
	return row, links
}

// UpsertRecord inserts or replaces a record, its FTS entry and its links
// within a transaction.
func (db *DB) UpsertRecord(r RecordRow, body string, links []LinkRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO records (filename, id, title, status, date, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			id         = excluded.id,
			title      = excluded.title,
			status     = excluded.status,
			date       = excluded.date,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, r.Filename, r.ID, r.Title, r.Status, r.Date, r.Checksum, body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}

	if err := ftsUpsert(tx, r.Filename, r.Title, body); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, r.Filename); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, source_id, direction, target_id, target) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(r.Filename, r.ID, string(l.Direction), l.TargetID, l.Target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteRecord removes a record file, its FTS entry and outgoing links.
func (db *DB) DeleteRecord(filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, filename)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, filename)
	_, _ = tx.Exec(`DELETE FROM records WHERE filename = ?`, filename)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a record file, or an empty
// string if it is not indexed.
func (db *DB) GetChecksum(filename string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM records WHERE filename = ?`, filename).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns filename -> checksum for every indexed record.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT filename, checksum FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var f, cs string
		if err := rows.Scan(&f, &cs); err != nil {
			return nil, err
		}
		out[f] = cs
	}
	return out, rows.Err()
}

const recordColumns = `id, filename, title, status, date, checksum, updated_at`

func scanRecord(s interface{ Scan(...any) error }) (RecordRow, error) {
	var r RecordRow
	err := s.Scan(&r.ID, &r.Filename, &r.Title, &r.Status, &r.Date, &r.Checksum, &r.UpdatedAt)
	return r, err
}

// GetRecord returns the indexed record with the given id. When two files
// carry the id the lexically smaller filename wins, as in the store.
func (db *DB) GetRecord(id int) (*RecordRow, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ? ORDER BY filename LIMIT 1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.ErrUnknownRecord, "no record with id %d in the index", id)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	return &r, nil
}

// ListRecords returns indexed records in id order, optionally filtered by
// effective status (case-insensitive).
func (db *DB) ListRecords(status string) ([]RecordRow, error) {
	q := `SELECT ` + recordColumns + ` FROM records`
	var args []any
	if status != "" {
		q += ` WHERE status = ? COLLATE NOCASE`
		args = append(args, status)
	}
	q += ` ORDER BY id, filename`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list records: %w", err)
	}
	defer rows.Close()

	out := []RecordRow{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SupersededBy returns the ids of records that state they supersede id.
func (db *DB) SupersededBy(id int) ([]int, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT source_id FROM links
		WHERE direction = ? AND target_id = ?
		ORDER BY source_id
	`, string(models.Supersedes), id)
	if err != nil {
		return nil, fmt.Errorf("index: superseded by: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns every record and every supersede edge between known records.
func (db *DB) Graph() ([]GraphNode, []GraphEdge, error) {
	rows, err := db.conn.Query(`SELECT id, title, status FROM records ORDER BY id, filename`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()

	nodes := []GraphNode{}
	seen := make(map[int]struct{})
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Title, &n.Status); err != nil {
			return nil, nil, err
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	erows, err := db.conn.Query(`
		SELECT DISTINCT l.source_id, l.target_id
		FROM links l
		WHERE l.direction = ?
		  AND EXISTS (SELECT 1 FROM records r WHERE r.id = l.target_id)
		ORDER BY l.source_id, l.target_id
	`, string(models.Supersedes))
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph edges: %w", err)
	}
	defer erows.Close()

	edges := []GraphEdge{}
	for erows.Next() {
		var e GraphEdge
		if err := erows.Scan(&e.Source, &e.Target); err != nil {
			return nil, nil, err
		}
		edges = append(edges, e)
	}
	return nodes, edges, erows.Err()
}

// Drift reports links whose counterpart is missing, using the same
// problem kinds as link.Check.
func (db *DB) Drift() ([]link.Drift, error) {
	rows, err := db.conn.Query(`
		SELECT l.source_id, l.source, l.direction, l.target_id, l.target,
		       CASE
		         WHEN t.filename IS NULL THEN ?
		         WHEN t.filename != l.target THEN ?
		         ELSE ?
		       END
		FROM links l
		LEFT JOIN records t ON t.filename = (
			SELECT filename FROM records WHERE id = l.target_id ORDER BY filename LIMIT 1
		)
		WHERE t.filename IS NULL
		   OR t.filename != l.target
		   OR NOT EXISTS (
				SELECT 1 FROM links m
				WHERE m.source = t.filename
				  AND m.target_id = l.source_id
				  AND m.direction != l.direction
		   )
		ORDER BY l.source_id, l.source, l.rowid
	`, link.ProblemMissingTarget, link.ProblemStaleFilename, link.ProblemNoMirror)
	if err != nil {
		return nil, fmt.Errorf("index: drift: %w", err)
	}
	defer rows.Close()

	var out []link.Drift
	for rows.Next() {
		var (
			d   link.Drift
			dir string
		)
		if err := rows.Scan(&d.RecordID, &d.Filename, &dir, &d.Link.TargetID, &d.Link.Target, &d.Problem); err != nil {
			return nil, err
		}
		d.Link.Direction = models.Direction(dir)
		out = append(out, d)
	}
	return out, rows.Err()
}
