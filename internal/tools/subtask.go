package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/task"
)

// SubtaskAddTool handles the subtask_add MCP tool.
type SubtaskAddTool struct {
	store *task.Store
}

// NewSubtaskAddTool creates a SubtaskAddTool with the given task store.
func NewSubtaskAddTool(store *task.Store) *SubtaskAddTool {
	return &SubtaskAddTool{store: store}
}

// Definition returns the MCP tool definition for subtask_add.
func (t *SubtaskAddTool) Definition() mcp.Tool {
	return mcp.NewTool("subtask_add",
		mcp.WithDescription("Append an ordered subtask to a task. Subtasks keep creation order and start in 'pending'."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Parent task id"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short subtask title"),
		),
		mcp.WithString("detail",
			mcp.Description("What the subtask involves"),
		),
	)
}

// Handle processes the subtask_add tool call.
func (t *SubtaskAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	title := req.GetString("title", "")
	if taskID == "" || title == "" {
		return mcp.NewToolResultError("'task_id' and 'title' are required"), nil
	}

	st, err := t.store.CreateSubtask(taskID, title, req.GetString("detail", ""))
	if err != nil {
		return errResult("subtask_add", err), nil
	}
	return jsonResult(st)
}

// SubtaskAssignTool handles the subtask_assign MCP tool.
type SubtaskAssignTool struct {
	store *task.Store
}

// NewSubtaskAssignTool creates a SubtaskAssignTool.
func NewSubtaskAssignTool(store *task.Store) *SubtaskAssignTool {
	return &SubtaskAssignTool{store: store}
}

// Definition returns the MCP tool definition for subtask_assign.
func (t *SubtaskAssignTool) Definition() mcp.Tool {
	return mcp.NewTool("subtask_assign",
		mcp.WithDescription(
			"Claim a pending subtask for an agent. The claim is atomic: when two agents race for the "+
				"same subtask exactly one wins, the other gets an invalid-transition error.",
		),
		mcp.WithString("subtask_id",
			mcp.Required(),
			mcp.Description("Subtask id"),
		),
		mcp.WithString("agent",
			mcp.Required(),
			mcp.Description("Agent identifier claiming the subtask"),
		),
	)
}

// Handle processes the subtask_assign tool call.
func (t *SubtaskAssignTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subtaskID := req.GetString("subtask_id", "")
	agent := req.GetString("agent", "")
	if subtaskID == "" || agent == "" {
		return mcp.NewToolResultError("'subtask_id' and 'agent' are required"), nil
	}

	st, err := t.store.AssignSubtask(subtaskID, agent)
	if err != nil {
		return errResult("subtask_assign", err), nil
	}
	return jsonResult(st)
}

// SubtaskStartTool handles the subtask_start MCP tool.
type SubtaskStartTool struct {
	store *task.Store
}

// NewSubtaskStartTool creates a SubtaskStartTool.
func NewSubtaskStartTool(store *task.Store) *SubtaskStartTool {
	return &SubtaskStartTool{store: store}
}

// Definition returns the MCP tool definition for subtask_start.
func (t *SubtaskStartTool) Definition() mcp.Tool {
	return mcp.NewTool("subtask_start",
		mcp.WithDescription("Begin work on an assigned subtask, moving it to 'in_progress'."),
		mcp.WithString("subtask_id",
			mcp.Required(),
			mcp.Description("Subtask id"),
		),
	)
}

// Handle processes the subtask_start tool call.
func (t *SubtaskStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subtaskID := req.GetString("subtask_id", "")
	if subtaskID == "" {
		return mcp.NewToolResultError("'subtask_id' is required"), nil
	}

	st, err := t.store.StartSubtask(subtaskID)
	if err != nil {
		return errResult("subtask_start", err), nil
	}
	return jsonResult(st)
}

// SubtaskVerifyTool handles the subtask_verify MCP tool.
type SubtaskVerifyTool struct {
	store *task.Store
}

// NewSubtaskVerifyTool creates a SubtaskVerifyTool.
func NewSubtaskVerifyTool(store *task.Store) *SubtaskVerifyTool {
	return &SubtaskVerifyTool{store: store}
}

// Definition returns the MCP tool definition for subtask_verify.
func (t *SubtaskVerifyTool) Definition() mcp.Tool {
	return mcp.NewTool("subtask_verify",
		mcp.WithDescription("Mark an in-progress subtask as verified. A task finishes once every subtask is verified."),
		mcp.WithString("subtask_id",
			mcp.Required(),
			mcp.Description("Subtask id"),
		),
	)
}

// Handle processes the subtask_verify tool call.
func (t *SubtaskVerifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subtaskID := req.GetString("subtask_id", "")
	if subtaskID == "" {
		return mcp.NewToolResultError("'subtask_id' is required"), nil
	}

	st, err := t.store.VerifySubtask(subtaskID)
	if err != nil {
		return errResult("subtask_verify", err), nil
	}
	return jsonResult(st)
}

// SubtaskRejectTool handles the subtask_reject MCP tool.
type SubtaskRejectTool struct {
	store *task.Store
}

// NewSubtaskRejectTool creates a SubtaskRejectTool.
func NewSubtaskRejectTool(store *task.Store) *SubtaskRejectTool {
	return &SubtaskRejectTool{store: store}
}

// Definition returns the MCP tool definition for subtask_reject.
func (t *SubtaskRejectTool) Definition() mcp.Tool {
	return mcp.NewTool("subtask_reject",
		mcp.WithDescription(
			"Reject an in-progress subtask with an annotation explaining what failed. The subtask goes back "+
				"to in_progress for a retry; when retries run out it fails and the parent task is blocked.",
		),
		mcp.WithString("subtask_id",
			mcp.Required(),
			mcp.Description("Subtask id"),
		),
		mcp.WithString("annotation",
			mcp.Required(),
			mcp.Description("Why the work was rejected and what to fix"),
		),
	)
}

// Handle processes the subtask_reject tool call.
func (t *SubtaskRejectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subtaskID := req.GetString("subtask_id", "")
	annotation := req.GetString("annotation", "")
	if subtaskID == "" || annotation == "" {
		return mcp.NewToolResultError("'subtask_id' and 'annotation' are required"), nil
	}

	st, err := t.store.RejectSubtask(subtaskID, annotation)
	if err != nil {
		return errResult("subtask_reject", err), nil
	}
	return jsonResult(st)
}
