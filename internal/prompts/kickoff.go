// Package prompts implements MCP prompt handlers for the knowledge engine.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// KickoffPrompt handles the task-kickoff MCP prompt. It walks the AI
// through syncing the project, checking drift, gathering context, and
// planning the task before any code changes.
type KickoffPrompt struct{}

// NewKickoffPrompt creates a KickoffPrompt.
func NewKickoffPrompt() *KickoffPrompt {
	return &KickoffPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *KickoffPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("task-kickoff",
		mcp.WithPromptDescription(
			"Kick off a task the right way: sync the code graph, check for documentation drift, "+
				"assemble flow context, then create and plan the task with ordered subtasks.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project name"),
		),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Absolute path to the project root"),
		),
		mcp.WithArgument("flow",
			mcp.ArgumentDescription("The flow the task touches (e.g. 'auth'); optional"),
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the task should accomplish"),
		),
	)
}

// Handle processes the task-kickoff prompt request.
func (p *KickoffPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	project := "my-project"
	path := "."
	flow := ""
	goal := "the goal I describe next"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["project"]; ok && v != "" {
			project = v
		}
		if v, ok := args["path"]; ok && v != "" {
			path = v
		}
		if v, ok := args["flow"]; ok {
			flow = v
		}
		if v, ok := args["goal"]; ok && v != "" {
			goal = v
		}
	}

	flowHint := ""
	if flow != "" {
		flowHint = fmt.Sprintf(" with flow='%s'", flow)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Kick off task on %s", project),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to start working on '%s' in project '%s' (%s).\n\n"+
						"Please:\n"+
						"1. Run `project_sync` with project='%s' and path='%s' so the code graph is current\n"+
						"2. Run `drift_check` and tell me about any drift before we touch code\n"+
						"3. Run `get_context`%s and read the result before planning\n"+
						"4. Run `task_create`, then `task_plan` with a concrete plan\n"+
						"5. Break the plan into ordered subtasks with `subtask_add`\n"+
						"6. Search memory with `mem_search` for anything relevant to this goal\n\n"+
						"Only start changing code after the plan and subtasks exist.",
					goal, project, path, project, path, flowHint,
				)),
			},
		},
	}, nil
}
