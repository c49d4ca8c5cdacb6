// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the record tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/adr/internal/recordservice"
)

// ContractURI is the resource URI of the record format contract.
const ContractURI = "adr://record-format"

// Server wraps the MCP server with the record tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
}

// New creates a new MCP server with all record tools registered.
func New(svc *recordservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"adr",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("new_record",
		mcp.WithDescription("Create the next architecture decision record from the template. "+
			"The id and filename are allocated by the tool. Optionally list ids of records "+
			"the new one supersedes; all of them must exist or nothing is written."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Record title, e.g. \"Use SQLite for the local index\"")),
		mcp.WithArray("supersedes",
			mcp.Description("Ids of records superseded by the new one"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.newRecord)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List records in id order as \"<filename>\\t<status>\" lines."),
		mcp.WithString("status", mcp.Description("Optional status filter, e.g. Accepted or Superseded")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("read_record",
		mcp.WithDescription("Read the full text of a record."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
	), s.readRecord)

	s.mcp.AddTool(mcp.NewTool("supersede_records",
		mcp.WithDescription("Mark records as superseded by an existing record. "+
			"Writes a Supersedes line into the record and a Superseded by line into each target."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the superseding record")),
		mcp.WithArray("targets", mcp.Required(),
			mcp.Description("Ids of the superseded records"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.supersedeRecords)

	s.mcp.AddTool(mcp.NewTool("check_links",
		mcp.WithDescription("Report supersede links whose counterpart line is missing."),
	), s.checkLinks)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through record titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Record Format Contract",
			mcp.WithResourceDescription("File naming, layout and supersede link lines of decision records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// refs reads an array argument as record references. Numbers are accepted
// as well as strings.
func refs(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, fmt.Sprintf("%g", x))
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) newRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.CreateRecord(ctx, title, refs(req, "supersedes"))
	if err != nil {
		if rec != nil {
			return mcp.NewToolResultError(fmt.Sprintf("created %s, but: %v", rec.Filename, err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", rec.Filename)), nil
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListRecords(ctx, req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no records found"), nil
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Filename + "\t" + r.Status
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.GetRecord(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rec.Content), nil
}

func (s *Server) supersedeRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets := refs(req, "targets")
	if len(targets) == 0 {
		return mcp.NewToolResultError("targets must list at least one record id"), nil
	}
	rec, err := s.svc.Supersede(ctx, id, targets)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s now supersedes %s", rec.Filename, strings.Join(targets, ", "))), nil
}

func (s *Server) checkLinks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	drift, err := s.svc.Check(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(drift) == 0 {
		return mcp.NewToolResultText("all supersede links are paired"), nil
	}
	lines := make([]string, len(drift))
	for i, d := range drift {
		lines[i] = d.String()
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
