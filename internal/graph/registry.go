package graph

import (
	"context"
	"sync"
	"time"
)

// Registry holds the current published graph per project. Builds construct
// a complete new graph off to the side and Swap publishes it under the
// write lock, so readers never observe a half-built graph. Builds for
// different projects may run concurrently; the registry only serializes
// the pointer swap.
type Registry struct {
	builder      *Builder
	buildTimeout time.Duration

	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewRegistry creates a Registry backed by the given builder. buildTimeout
// bounds each build; zero means the caller's ctx is the only bound.
func NewRegistry(builder *Builder, buildTimeout time.Duration) *Registry {
	return &Registry{
		builder:      builder,
		buildTimeout: buildTimeout,
		graphs:       make(map[string]*Graph),
	}
}

// Current returns the published graph for a project, or nil if none has
// been built yet.
func (r *Registry) Current(project string) *Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graphs[project]
}

// Rebuild builds a fresh graph for the project and publishes it. Files
// unchanged since the currently published graph (by content hash) carry
// their prior extraction over instead of being re-parsed. The prior graph
// stays visible until the new one is complete; on error (including timeout)
// nothing is published.
func (r *Registry) Rebuild(ctx context.Context, project, root string) (*Graph, error) {
	if r.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.buildTimeout)
		defer cancel()
	}
	g, err := r.builder.BuildAgainst(ctx, project, root, r.Current(project))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.graphs[project] = g
	r.mu.Unlock()
	return g, nil
}

// Fresh returns the current graph if it exists and was built within maxAge;
// otherwise it rebuilds synchronously. maxAge <= 0 means any published
// graph is fresh enough.
func (r *Registry) Fresh(ctx context.Context, project, root string, maxAge time.Duration) (*Graph, error) {
	if g := r.Current(project); g != nil {
		if maxAge <= 0 || time.Since(g.BuiltAt) <= maxAge {
			return g, nil
		}
	}
	return r.Rebuild(ctx, project, root)
}
