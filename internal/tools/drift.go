package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/drift"
)

// DriftTool handles the drift_check MCP tool.
type DriftTool struct {
	detector *drift.Detector
}

// NewDriftTool creates a DriftTool with the given detector.
func NewDriftTool(detector *drift.Detector) *DriftTool {
	return &DriftTool{detector: detector}
}

// Definition returns the MCP tool definition for drift_check.
func (t *DriftTool) Definition() mcp.Tool {
	return mcp.NewTool("drift_check",
		mcp.WithDescription(
			"Compare a project's skill documentation against its actual code structure and report drift: "+
				"missing code, undocumented files, changed signatures, stale references. "+
				"An empty report means docs and code agree.",
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
			mcp.Description("Check a single flow (e.g. 'auth' or 'flow.auth'); default checks every documented flow"),
		),
	)
}

// Handle processes the drift_check tool call.
func (t *DriftTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	path := req.GetString("path", "")
	if project == "" || path == "" {
		return mcp.NewToolResultError("'project' and 'path' are required"), nil
	}
	flow := req.GetString("flow", "")

	report, err := t.detector.Check(ctx, path, project, flow)
	if err != nil {
		return errResult("drift_check", err), nil
	}
	return jsonResult(report)
}
