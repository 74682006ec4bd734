// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the daily note backfill for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/scan"
)

// Server wraps the MCP server with the backfill tools.
type Server struct {
	mcp   *server.MCPServer
	notes dailynotes.Provider
	svc   *backfill.Service
}

// New creates a new MCP server with all tools registered.
func New(notes dailynotes.Provider, svc *backfill.Service) *Server {
	s := &Server{notes: notes, svc: svc}

	s.mcp = server.NewMCPServer(
		"Daygap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Report the daily notes facility: pattern, note count, "+
			"observed date range, and whether today's note exists."),
	), s.getStatus)

	s.mcp.AddTool(mcp.NewTool("list_missing_dates",
		mcp.WithDescription("List the days in a range that have no daily note. "+
			"Without arguments the range runs from the last observed note through today."),
		mcp.WithString("start", mcp.Description("Range start as YYYY-MM-DD (defaults to the last observed note)")),
		mcp.WithString("end", mcp.Description("Range end as YYYY-MM-DD (defaults to today)")),
	), s.listMissingDates)

	s.mcp.AddTool(mcp.NewTool("create_missing_notes",
		mcp.WithDescription("Create every missing daily note in an explicit range. "+
			"Existing notes are never touched; each new note is rendered from the "+
			"configured template (see the daygap://note-template resource)."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Range start as YYYY-MM-DD")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Range end as YYYY-MM-DD")),
	), s.createMissingNotes)

	// Resource: daily note template contract.
	s.mcp.AddResource(
		mcp.NewResource("daygap://note-template", "Daily Note Template",
			mcp.WithResourceDescription("Placeholders available when templating new daily notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateResource,
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

func (s *Server) getStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg, err := s.notes.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	today := date.Today()
	first, _ := reg.First()
	last, _ := reg.Last()
	out, _ := json.MarshalIndent(map[string]any{
		"enabled":    s.notes.Enabled(),
		"pattern":    s.notes.Pattern().String(),
		"notes":      reg.Len(),
		"first":      first,
		"last":       last,
		"today":      today,
		"today_note": reg.Has(today),
		"malformed":  len(reg.Malformed()),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMissingDates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg, err := s.notes.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	today := date.Today()
	_, last := scan.FirstAndLast(reg, today)
	start, end := last, today

	if raw, argErr := req.RequireString("start"); argErr == nil && raw != "" {
		if start, err = date.Parse(raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", raw)), nil
		}
	}
	if raw, argErr := req.RequireString("end"); argErr == nil && raw != "" {
		if end, err = date.Parse(raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", raw)), nil
		}
	}

	missing := scan.FindMissingDates(reg, start, end)
	if missing == nil {
		missing = []date.Date{}
	}
	out, _ := json.MarshalIndent(map[string]any{
		"start":   start,
		"end":     end,
		"missing": missing,
		"count":   len(missing),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createMissingNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.notes.Enabled() {
		return mcp.NewToolResultError(backfill.DisabledMessage), nil
	}

	startRaw, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	endRaw, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := date.Parse(startRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", startRaw)), nil
	}
	end, err := date.Parse(endRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", endRaw)), nil
	}

	reg, err := s.notes.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	missing := scan.FindMissingDates(reg, start, end)

	res, err := s.svc.CreateAll(ctx, history.TriggerMCP, missing)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created := res.Created
	if created == nil {
		created = []dailynotes.Note{}
	}
	out, _ := json.MarshalIndent(map[string]any{
		"run_id":  res.RunID,
		"message": res.Message(),
		"created": created,
		"failed":  len(res.Failed),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "daygap://note-template",
			MIMEType: "text/markdown",
			Text:     NoteTemplateContract,
		},
	}, nil
}
