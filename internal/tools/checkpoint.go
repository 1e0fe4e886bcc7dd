package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/task"
)

// CheckpointSaveTool handles the checkpoint_save MCP tool.
type CheckpointSaveTool struct {
	store *task.Store
}

// NewCheckpointSaveTool creates a CheckpointSaveTool with the given task store.
func NewCheckpointSaveTool(store *task.Store) *CheckpointSaveTool {
	return &CheckpointSaveTool{store: store}
}

// Definition returns the MCP tool definition for checkpoint_save.
func (t *CheckpointSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("checkpoint_save",
		mcp.WithDescription(
			"Save a checkpoint of an agent's working state for a task. Checkpoints are append-only: "+
				"each save becomes the new latest and history keeps every prior one.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
		mcp.WithString("agent",
			mcp.Required(),
			mcp.Description("Agent identifier"),
		),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("Agent state as a JSON value (opaque to the engine)"),
		),
		mcp.WithString("summary",
			mcp.Description("One-line summary of where the work stands"),
		),
	)
}

// Handle processes the checkpoint_save tool call.
func (t *CheckpointSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	agent := req.GetString("agent", "")
	state := req.GetString("state", "")
	if taskID == "" || agent == "" || state == "" {
		return mcp.NewToolResultError("'task_id', 'agent' and 'state' are required"), nil
	}
	if !json.Valid([]byte(state)) {
		return mcp.NewToolResultError("'state' must be valid JSON"), nil
	}

	cp, err := t.store.SaveCheckpoint(taskID, agent, json.RawMessage(state), req.GetString("summary", ""))
	if err != nil {
		return errResult("checkpoint_save", err), nil
	}
	return jsonResult(cp)
}

// CheckpointLoadTool handles the checkpoint_load MCP tool.
type CheckpointLoadTool struct {
	store *task.Store
}

// NewCheckpointLoadTool creates a CheckpointLoadTool.
func NewCheckpointLoadTool(store *task.Store) *CheckpointLoadTool {
	return &CheckpointLoadTool{store: store}
}

// Definition returns the MCP tool definition for checkpoint_load.
func (t *CheckpointLoadTool) Definition() mcp.Tool {
	return mcp.NewTool("checkpoint_load",
		mcp.WithDescription("Load the latest checkpoint for (task, agent) to resume interrupted work. Optionally list the full history."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
		mcp.WithString("agent",
			mcp.Required(),
			mcp.Description("Agent identifier"),
		),
		mcp.WithBoolean("history",
			mcp.Description("Return every checkpoint, newest first, instead of only the latest (default: false)"),
		),
	)
}

// Handle processes the checkpoint_load tool call.
func (t *CheckpointLoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	agent := req.GetString("agent", "")
	if taskID == "" || agent == "" {
		return mcp.NewToolResultError("'task_id' and 'agent' are required"), nil
	}

	if boolArg(req, "history", false) {
		history, err := t.store.CheckpointHistory(taskID, agent)
		if err != nil {
			return errResult("checkpoint_load", err), nil
		}
		return jsonResult(history)
	}

	cp, err := t.store.LoadCheckpoint(taskID, agent)
	if err != nil {
		return errResult("checkpoint_load", err), nil
	}
	if cp == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No checkpoint for agent %q on task %s yet.", agent, taskID)), nil
	}
	return jsonResult(cp)
}
