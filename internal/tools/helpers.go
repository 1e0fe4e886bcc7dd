// Package tools provides the MCP tool handlers for the knowledge engine.
//
// Each tool follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers translate between the MCP wire shape and the engine packages;
// no engine logic lives here.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/fault"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// jsonResult marshals v and returns it as a text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errResult maps an engine error to an actionable tool error message.
func errResult(op string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
	case errors.Is(err, fault.ErrInvalidTransition):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v (check current status before retrying)", op, err))
	case errors.Is(err, fault.ErrTimeout):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v (retry may succeed)", op, err))
	case errors.Is(err, fault.ErrBuild):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v (is the project path readable?)", op, err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
	}
}
