// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Manabi journal tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aoyagi/manabi/internal/index"
	"github.com/aoyagi/manabi/internal/logservice"
	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/portfolio"
	"github.com/aoyagi/manabi/internal/profileservice"
)

// Server wraps the MCP server with Manabi tools.
type Server struct {
	mcp      *server.MCPServer
	logs     *logservice.Service
	profiles *profileservice.Service
	db       *index.DB
	dataDir  string
}

// New creates a new MCP server with all Manabi tools registered.
func New(logs *logservice.Service, profiles *profileservice.Service, db *index.DB, dataDir string) *Server {
	s := &Server{logs: logs, profiles: profiles, db: db, dataDir: dataDir}

	s.mcp = server.NewMCPServer(
		"Manabi",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_logs",
		mcp.WithDescription("List all learning logs, newest first, as JSON."),
	), s.listLogs)

	s.mcp.AddTool(mcp.NewTool("create_log",
		mcp.WithDescription("Create a new learning log. Category, skill levels, and "+
			"reflection types use fixed Japanese values; read the get_log_contract "+
			"tool or the manabi://log-format resource first."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short title of the activity")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What was learned or done")),
		mcp.WithString("category", mcp.Required(), mcp.Description("One of the fixed Japanese categories, e.g. プログラミング")),
		mcp.WithBoolean("is_public", mcp.Description("Whether the log appears in the public portfolio (default false)")),
	), s.createLog)

	s.mcp.AddTool(mcp.NewTool("search_logs",
		mcp.WithDescription("Full-text search through learning log titles, descriptions, and skills."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchLogs)

	s.mcp.AddTool(mcp.NewTool("add_reflection",
		mcp.WithDescription("Attach a reflection to an existing learning log."),
		mcp.WithString("log_id", mcp.Required(), mcp.Description("UUID of the log")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Reflection text")),
		mcp.WithString("type", mcp.Required(), mcp.Description("One of the fixed Japanese reflection types, e.g. 学んだこと")),
	), s.addReflection)

	s.mcp.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Return the current portfolio statistics (public logs, skill total, streak, categories) as JSON."),
	), s.getPortfolio)

	s.mcp.AddTool(mcp.NewTool("get_log_contract",
		mcp.WithDescription("Returns the canonical Manabi learning-log contract with all "+
			"valid category, skill-level, and reflection-type values. Call this before "+
			"creating logs or reflections."),
	), s.getLogContract)

	s.mcp.AddTool(mcp.NewTool("upload_avatar",
		mcp.WithDescription("Download an image from an http(s) or base64 data URL and set it "+
			"as the profile avatar. Supported formats: png, jpg, jpeg, gif, webp, svg."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or data URI of the image")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAvatar)

	// Resource: log format contract.
	s.mcp.AddResource(
		mcp.NewResource("manabi://log-format", "Learning Log Contract",
			mcp.WithResourceDescription("Canonical learning-log schema and fixed enum values."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLogFormatResource,
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

func (s *Server) listLogs(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.logs.Logs(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawCategory, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := models.Category(rawCategory)
	if !category.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s (see get_log_contract)", rawCategory)), nil
	}
	isPublic := req.GetBool("is_public", false)

	created, err := s.logs.Create(ctx, title, description, category, isPublic)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Index the new log so search_logs sees it immediately.
	_ = s.db.UpsertLog(index.RowFromLog(created))

	out, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchLogs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addReflection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawID, err := req.RequireString("log_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid log_id: %s", rawID)), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawType, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ := models.ReflectionType(rawType)
	if !typ.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown reflection type: %s (see get_log_contract)", rawType)), nil
	}

	updated, err := s.logs.AddReflection(ctx, id, content, typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(updated, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPortfolio(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := portfolio.Build(s.logs.Logs(), time.Now())
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLogContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LogFormatContract), nil
}

func (s *Server) readLogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "manabi://log-format",
			MIMEType: "text/markdown",
			Text:     LogFormatContract,
		},
	}, nil
}
