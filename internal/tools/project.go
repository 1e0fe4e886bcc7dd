package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/graph"
)

// SyncTool handles the project_sync MCP tool: it rebuilds a project's
// code graph from source.
type SyncTool struct {
	graphs *graph.Registry
}

// NewSyncTool creates a SyncTool with the given graph registry.
func NewSyncTool(graphs *graph.Registry) *SyncTool {
	return &SyncTool{graphs: graphs}
}

// Definition returns the MCP tool definition for project_sync.
func (t *SyncTool) Definition() mcp.Tool {
	return mcp.NewTool("project_sync",
		mcp.WithDescription(
			"Rebuild the structural code graph for a project from its source tree. "+
				"Run this after significant code changes so drift checks and contexts see current structure.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name used to scope the graph"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the project root"),
		),
	)
}

// Handle processes the project_sync tool call.
func (t *SyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	path := req.GetString("path", "")
	if project == "" || path == "" {
		return mcp.NewToolResultError("'project' and 'path' are required"), nil
	}

	g, err := t.graphs.Rebuild(ctx, project, path)
	if err != nil {
		return errResult("project_sync", err), nil
	}

	return jsonResult(map[string]any{
		"project":     g.Project,
		"built_at":    g.BuiltAt,
		"stats":       g.Stats,
		"file_errors": g.FileErrors,
	})
}

// StatusTool handles the project_status MCP tool.
type StatusTool struct {
	graphs *graph.Registry
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(graphs *graph.Registry) *StatusTool {
	return &StatusTool{graphs: graphs}
}

// Definition returns the MCP tool definition for project_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("project_status",
		mcp.WithDescription("Show the current code graph state for a project: age, entity and relation counts, extraction errors."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
	)
}

// Handle processes the project_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	g := t.graphs.Current(project)
	if g == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No graph for %q yet. Run project_sync first.", project)), nil
	}

	return jsonResult(map[string]any{
		"project":     g.Project,
		"built_at":    g.BuiltAt,
		"stats":       g.Stats,
		"file_errors": g.FileErrors,
	})
}
