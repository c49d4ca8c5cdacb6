// Package models defines the domain types for adr.
package models

import "time"

// Direction is the orientation of a supersede link.
type Direction string

const (
	Supersedes   Direction = "supersedes"
	SupersededBy Direction = "superseded-by"
)

// Record is a decision record persisted as a single file in the store.
type Record struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Filename string    `json:"filename"`
	Status   string    `json:"status,omitempty"`
	Date     string    `json:"date,omitempty"`
	Links    []Link    `json:"links,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	ModTime  time.Time `json:"updated_at"`
}

// Link is a supersede reference written as a text line inside a record body.
type Link struct {
	Direction Direction `json:"direction"`
	TargetID  int       `json:"target_id"`
	Target    string    `json:"target"` // filename as written in the link line
}

// FileMetadata is a lightweight representation returned by storage listings.
type FileMetadata struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"updated_at"`
}
