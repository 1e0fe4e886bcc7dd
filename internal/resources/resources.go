// Package resources implements MCP resource handlers for the knowledge engine.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (cortex://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/cortex/internal/drift"
	"github.com/HendryAvila/cortex/internal/graph"
)

// Handler manages the engine's resource endpoints.
type Handler struct {
	graphs *graph.Registry
	drifts *drift.RecordStore
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(graphs *graph.Registry, drifts *drift.RecordStore) *Handler {
	return &Handler{graphs: graphs, drifts: drifts}
}

// StatusTemplate returns the resource template for per-project graph status.
func (h *Handler) StatusTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"cortex://status/{project}",
		"Project graph status",
		mcp.WithTemplateDescription("Current code graph state for a project: build time, counts, extraction errors"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleStatus returns the named project's graph status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	project := uriSuffix(req.Params.URI, "cortex://status/")
	if project == "" {
		return errorResource(req.Params.URI, "missing project in URI"), nil
	}

	g := h.graphs.Current(project)
	if g == nil {
		return errorResource(req.Params.URI, fmt.Sprintf("no graph for %q yet; run project_sync", project)), nil
	}

	return jsonResource(req.Params.URI, map[string]any{
		"project":     g.Project,
		"built_at":    g.BuiltAt,
		"stats":       g.Stats,
		"file_errors": g.FileErrors,
	})
}

// DriftTemplate returns the resource template for per-project drift records.
func (h *Handler) DriftTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"cortex://drift/{project}",
		"Project drift records",
		mcp.WithTemplateDescription("Active (non-superseded) drift records from the latest checks"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleDrift returns the named project's active drift records as JSON.
func (h *Handler) HandleDrift(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	project := uriSuffix(req.Params.URI, "cortex://drift/")
	if project == "" {
		return errorResource(req.Params.URI, "missing project in URI"), nil
	}

	records, err := h.drifts.Active(project)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	return jsonResource(req.Params.URI, map[string]any{
		"project":   project,
		"has_drift": len(records) > 0,
		"drifts":    records,
	})
}

// uriSuffix extracts the variable part of a templated URI.
func uriSuffix(uri, prefix string) string {
	return strings.TrimPrefix(uri, prefix)
}

// jsonResource marshals v into a single JSON resource.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
