package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/adr/internal/index"
	"github.com/starford/adr/internal/recordservice"
)

// CreateRecordRequest is the request body for creating a record.
type CreateRecordRequest struct {
	Title      string   `json:"title" example:"Use PostgreSQL for persistence"`
	Supersedes []string `json:"supersedes,omitempty" example:"3"`
}

// Validate validates the request.
func (r *CreateRecordRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Supersedes, validation.Each(validation.Required)),
	)
}

// SupersedeRequest is the request body for linking an existing record.
type SupersedeRequest struct {
	Targets []string `json:"targets" example:"2,5"`
}

// Validate validates the request.
func (r *SupersedeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Targets, validation.Required, validation.Each(validation.Required)),
	)
}

// RecordDetail is the full record response type (aliased from the domain layer).
type RecordDetail = recordservice.RecordDetail

// RecordListResponse wraps record listings.
type RecordListResponse struct {
	Records []index.RecordRow `json:"records"`
	Total   int               `json:"total" example:"12"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// GraphResponse wraps the supersede graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes"`
	Edges []index.GraphEdge `json:"edges"`
}
