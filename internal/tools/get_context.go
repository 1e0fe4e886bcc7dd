package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/facade"
)

// ContextTool handles the get_context MCP tool.
type ContextTool struct {
	facade *facade.Facade
}

// NewContextTool creates a ContextTool with the given facade.
func NewContextTool(f *facade.Facade) *ContextTool {
	return &ContextTool{facade: f}
}

// Definition returns the MCP tool definition for get_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription(
			"Assemble the working context for a flow: the reachable code slice, the matching skill "+
				"documentation section, and the most relevant memories. Call this before starting work on a flow.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the project root"),
		),
		mcp.WithString("flow",
			mcp.Description("Flow to build context for (e.g. 'auth'); default covers the whole project"),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Return the raw JSON bundle instead of formatted markdown (default: false)"),
		),
	)
}

// Handle processes the get_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	path := req.GetString("path", "")
	if project == "" || path == "" {
		return mcp.NewToolResultError("'project' and 'path' are required"), nil
	}

	bundle, err := t.facade.FullContext(ctx, facade.Selector{
		FlowID:      req.GetString("flow", ""),
		ProjectPath: path,
		ProjectName: project,
	})
	if err != nil {
		return errResult("get_context", err), nil
	}

	if boolArg(req, "raw", false) {
		return jsonResult(bundle)
	}
	return mcp.NewToolResultText(facade.FormatContext(bundle)), nil
}
