package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/memory"
)

// MemSaveTool handles the mem_save MCP tool.
type MemSaveTool struct {
	store *memory.Store
}

// NewMemSaveTool creates a MemSaveTool with the given memory store.
func NewMemSaveTool(store *memory.Store) *MemSaveTool {
	return &MemSaveTool{store: store}
}

// Definition returns the MCP tool definition for mem_save.
func (t *MemSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_save",
		mcp.WithDescription(
			"Save an important finding to persistent memory. Call this PROACTIVELY after significant work: "+
				"decisions, bug fixes, patterns, gotchas. Records are immutable; save a new one to correct an old one.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title (e.g. 'JWT auth middleware', 'Fixed N+1 query')"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("What was learned, decided, or fixed, with enough detail to act on later"),
		),
		mcp.WithString("category",
			mcp.Description("Category: decision, architecture, bugfix, pattern, discovery (default: note)"),
		),
		mcp.WithString("project",
			mcp.Description("Project to scope the memory to; empty saves to the shared scope"),
		),
		mcp.WithNumber("importance",
			mcp.Description("Importance 0-10; used to break similarity ties in search (default: 0)"),
		),
	)
}

// Handle processes the mem_save tool call.
func (t *MemSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	r, err := t.store.Save(ctx, memory.SaveParams{
		Category:   req.GetString("category", "note"),
		Title:      title,
		Content:    content,
		Project:    req.GetString("project", ""),
		Importance: intArg(req, "importance", 0),
	})
	if err != nil {
		return errResult("mem_save", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Memory saved: %q (%s)\nID: %s", r.Title, r.Category, r.ID)), nil
}

// MemSearchTool handles the mem_search MCP tool.
type MemSearchTool struct {
	store *memory.Store
}

// NewMemSearchTool creates a MemSearchTool.
func NewMemSearchTool(store *memory.Store) *MemSearchTool {
	return &MemSearchTool{store: store}
}

// Definition returns the MCP tool definition for mem_search.
func (t *MemSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_search",
		mcp.WithDescription(
			"Search memory semantically. Results come from the named project's scope only; "+
				"omit 'project' to search the shared scope.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for, in natural language"),
		),
		mcp.WithString("project",
			mcp.Description("Project scope; empty searches shared memories"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 10)"),
		),
		mcp.WithBoolean("rerank",
			mcp.Description("Run the reranker over the candidates (default: false)"),
		),
	)
}

// Handle processes the mem_search tool call.
func (t *MemSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchSemantic(ctx, memory.SearchParams{
		Query:   query,
		Project: req.GetString("project", ""),
		Limit:   intArg(req, "limit", 10),
		Rerank:  boolArg(req, "rerank", false),
	})
	if err != nil {
		return errResult("mem_search", err), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No matching memories."), nil
	}
	return jsonResult(matches)
}
