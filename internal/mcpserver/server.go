// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes OmnioSearch tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wlfogle/OmnioSearch/internal/fileservice"
	"github.com/wlfogle/OmnioSearch/internal/search"
)

// Server wraps the MCP server with OmnioSearch tools.
type Server struct {
	mcp *server.MCPServer
	svc *fileservice.Service
}

// New creates a new MCP server with all OmnioSearch tools registered.
func New(svc *fileservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"OmnioSearch",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Search indexed files by free text. Natural-language "+
			"filters like 'large pdf files modified today' are understood."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("max_results", mcp.Description("Result cap (default 20)")),
	), s.searchFiles)

	s.mcp.AddTool(mcp.NewTool("get_file",
		mcp.WithDescription("Return the indexed metadata record for an absolute file path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file")),
	), s.getFile)

	s.mcp.AddTool(mcp.NewTool("start_indexing",
		mcp.WithDescription("Start a background indexing run over the given root "+
			"directories (or the configured defaults when omitted). Returns immediately; "+
			"poll index_status for completion."),
		mcp.WithString("roots", mcp.Description("Optional comma-separated root directories")),
	), s.startIndexing)

	s.mcp.AddTool(mcp.NewTool("index_status",
		mcp.WithDescription("Report aggregate index statistics: total, indexed, pending "+
			"and failed file counts, size on disk, and throughput."),
	), s.indexStatus)

	s.mcp.AddTool(mcp.NewTool("suggest_queries",
		mcp.WithDescription("Propose query completions for a partial search input."),
		mcp.WithString("partial", mcp.Required(), mcp.Description("Partial query text")),
	), s.suggestQueries)

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

func (s *Server) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("max_results", 20)

	results, err := s.svc.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []search.Result{}
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.GetFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) startIndexing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var roots []string
	if raw := req.GetString("roots", ""); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(r); trimmed != "" {
				roots = append(roots, trimmed)
			}
		}
	}
	if err := s.svc.StartIndexing(ctx, roots); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("indexing started"), nil
}

func (s *Server) indexStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.svc.Status()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) suggestQueries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	partial, err := req.RequireString("partial")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	suggestions := s.svc.Suggestions(partial)
	if len(suggestions) == 0 {
		return mcp.NewToolResultText("no suggestions"), nil
	}
	return mcp.NewToolResultText(strings.Join(suggestions, "\n")), nil
}
