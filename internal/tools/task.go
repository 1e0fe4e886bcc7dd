package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/task"
)

// TaskCreateTool handles the task_create MCP tool.
type TaskCreateTool struct {
	store *task.Store
}

// NewTaskCreateTool creates a TaskCreateTool with the given task store.
func NewTaskCreateTool(store *task.Store) *TaskCreateTool {
	return &TaskCreateTool{store: store}
}

// Definition returns the MCP tool definition for task_create.
func (t *TaskCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_create",
		mcp.WithDescription("Create a new task for a project. The task starts in the 'created' state; attach a plan with task_plan before adding subtasks."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("What the task should accomplish"),
		),
	)
}

// Handle processes the task_create tool call.
func (t *TaskCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	title := req.GetString("title", "")
	if project == "" || title == "" {
		return mcp.NewToolResultError("'project' and 'title' are required"), nil
	}

	created, err := t.store.CreateTask(project, title, req.GetString("description", ""))
	if err != nil {
		return errResult("task_create", err), nil
	}
	return jsonResult(created)
}

// TaskPlanTool handles the task_plan MCP tool.
type TaskPlanTool struct {
	store *task.Store
}

// NewTaskPlanTool creates a TaskPlanTool.
func NewTaskPlanTool(store *task.Store) *TaskPlanTool {
	return &TaskPlanTool{store: store}
}

// Definition returns the MCP tool definition for task_plan.
func (t *TaskPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("task_plan",
		mcp.WithDescription("Attach a plan to a created task and move it to 'planned'. Only valid from the 'created' state."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
		mcp.WithString("plan",
			mcp.Required(),
			mcp.Description("The plan text (markdown)"),
		),
	)
}

// Handle processes the task_plan tool call.
func (t *TaskPlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	plan := req.GetString("plan", "")
	if taskID == "" || plan == "" {
		return mcp.NewToolResultError("'task_id' and 'plan' are required"), nil
	}

	planned, err := t.store.PlanTask(taskID, plan)
	if err != nil {
		return errResult("task_plan", err), nil
	}
	return jsonResult(planned)
}

// TaskProgressTool handles the task_progress MCP tool.
type TaskProgressTool struct {
	store *task.Store
}

// NewTaskProgressTool creates a TaskProgressTool.
func NewTaskProgressTool(store *task.Store) *TaskProgressTool {
	return &TaskProgressTool{store: store}
}

// Definition returns the MCP tool definition for task_progress.
func (t *TaskProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("task_progress",
		mcp.WithDescription("Report a task's derived progress: verified subtasks over total, with percent and completion flag."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the task_progress tool call.
func (t *TaskProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	progress, err := t.store.Progress(taskID)
	if err != nil {
		return errResult("task_progress", err), nil
	}
	return jsonResult(progress)
}

// TaskFinishTool handles the task_finish MCP tool.
type TaskFinishTool struct {
	store *task.Store
}

// NewTaskFinishTool creates a TaskFinishTool.
func NewTaskFinishTool(store *task.Store) *TaskFinishTool {
	return &TaskFinishTool{store: store}
}

// Definition returns the MCP tool definition for task_finish.
func (t *TaskFinishTool) Definition() mcp.Tool {
	return mcp.NewTool("task_finish",
		mcp.WithDescription("Complete a task. Succeeds only when every subtask is verified; finishing an already completed task is a no-op."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the task_finish tool call.
func (t *TaskFinishTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	finished, err := t.store.FinishTask(taskID)
	if err != nil {
		return errResult("task_finish", err), nil
	}
	return jsonResult(finished)
}
