package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/link"
	"github.com/starford/adr/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "adr-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(id int, filename, title, status string) RecordRow {
	return RecordRow{ID: id, Filename: filename, Title: title, Status: status, Checksum: filename, UpdatedAt: time.Now()}
}

func supersedes(id int, filename string) LinkRow {
	return LinkRow{Direction: models.Supersedes, TargetID: id, Target: filename}
}

func supersededBy(id int, filename string) LinkRow {
	return LinkRow{Direction: models.SupersededBy, TargetID: id, Target: filename}
}

// seedPair indexes record 2 superseded by record 3 with both lines present.
func seedPair(t *testing.T, db *DB) {
	t.Helper()
	if err := db.UpsertRecord(row(2, "0002-old.md", "old", "Superseded"), "# 2. old",
		[]LinkRow{supersededBy(3, "0003-new.md")}); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := db.UpsertRecord(row(3, "0003-new.md", "new", "Accepted"), "# 3. new",
		[]LinkRow{supersedes(2, "0002-old.md")}); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&count); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	r := row(1, "0001-record-architecture-decisions.md", "Record architecture decisions", "Accepted")
	r.Checksum = "abc123"
	if err := db.UpsertRecord(r, "We will record decisions.", nil); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	cs, err := db.GetChecksum(r.Filename)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("0042-nope.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGetRecord(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	r, err := db.GetRecord(3)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if r.Filename != "0003-new.md" || r.Status != "Accepted" {
		t.Errorf("record = %+v", r)
	}

	if _, err := db.GetRecord(9); !errors.Is(err, apperr.ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestListRecords_StatusFilter(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	all, err := db.ListRecords("")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 2 || all[0].ID != 2 || all[1].ID != 3 {
		t.Fatalf("records = %+v", all)
	}

	sup, err := db.ListRecords("superseded")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(sup) != 1 || sup[0].ID != 2 {
		t.Errorf("superseded = %+v", sup)
	}
}

func TestSupersededBy(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	ids, err := db.SupersededBy(2)
	if err != nil {
		t.Fatalf("SupersededBy: %v", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("ids = %v, want [3]", ids)
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	if err := db.DeleteRecord("0003-new.md"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	cs, _ := db.GetChecksum("0003-new.md")
	if cs != "" {
		t.Errorf("deleted record still has checksum %q", cs)
	}
	ids, _ := db.SupersededBy(2)
	if len(ids) != 0 {
		t.Errorf("expected no supersede links after delete, got %v", ids)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	if err := db.UpsertRecord(row(3, "0003-new.md", "new", "Accepted"), "# 3. new", nil); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	ids, _ := db.SupersededBy(2)
	if len(ids) != 0 {
		t.Error("old link should be removed on upsert")
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)
	// Dangling edge to a record that is not indexed.
	if err := db.UpsertRecord(row(4, "0004-lost.md", "lost", "Accepted"), "", []LinkRow{supersedes(99, "0099-x.md")}); err != nil {
		t.Fatal(err)
	}

	nodes, edges, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 3 {
		t.Errorf("nodes = %+v", nodes)
	}
	if len(edges) != 1 || edges[0] != (GraphEdge{Source: 3, Target: 2}) {
		t.Errorf("edges = %+v", edges)
	}
}

func TestDrift(t *testing.T) {
	db := testDB(t)
	seedPair(t, db)

	d, err := db.Drift()
	if err != nil {
		t.Fatalf("Drift: %v", err)
	}
	if len(d) != 0 {
		t.Fatalf("expected no drift, got %+v", d)
	}

	// Record 2 loses its back-reference; record 4 points at a missing record.
	_ = db.UpsertRecord(row(2, "0002-old.md", "old", "Accepted"), "", nil)
	_ = db.UpsertRecord(row(4, "0004-lost.md", "lost", "Accepted"), "", []LinkRow{supersedes(99, "0099-x.md")})

	d, err = db.Drift()
	if err != nil {
		t.Fatalf("Drift: %v", err)
	}
	if len(d) != 2 {
		t.Fatalf("drift = %+v", d)
	}
	if d[0].RecordID != 3 || d[0].Problem != link.ProblemNoMirror {
		t.Errorf("first drift = %+v", d[0])
	}
	if d[1].RecordID != 4 || d[1].Problem != link.ProblemMissingTarget {
		t.Errorf("second drift = %+v", d[1])
	}
}

func TestDrift_StaleFilename(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertRecord(row(2, "0002-renamed.md", "renamed", "Accepted"), "", nil)
	_ = db.UpsertRecord(row(3, "0003-new.md", "new", "Accepted"), "", []LinkRow{supersedes(2, "0002-old.md")})

	d, err := db.Drift()
	if err != nil {
		t.Fatalf("Drift: %v", err)
	}
	if len(d) != 1 || d[0].Problem != link.ProblemStaleFilename {
		t.Errorf("drift = %+v", d)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertRecord(row(5, "0005-cache.md", "Use a cache", "Accepted"), "We choose uniqueword for caching.", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 5 || results[0].Filename != "0005-cache.md" {
		t.Errorf("search results = %+v, want 1 hit for record 5", results)
	}
}
