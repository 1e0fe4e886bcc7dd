// Package facade assembles the read-only context bundle agents receive
// before working on a flow: the structural slice of the code graph, the
// matching skill section, and the most relevant memories.
package facade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/HendryAvila/cortex/internal/config"
	"github.com/HendryAvila/cortex/internal/drift"
	"github.com/HendryAvila/cortex/internal/fault"
	"github.com/HendryAvila/cortex/internal/graph"
	"github.com/HendryAvila/cortex/internal/memory"
	"github.com/HendryAvila/cortex/internal/skill"
)

// Selector names the flow and project a context is built for.
type Selector struct {
	FlowID      string `json:"flow_id"`
	ProjectPath string `json:"project_path"`
	ProjectName string `json:"project_name"`
}

// Context is the assembled bundle. It is a snapshot: nothing in it mutates
// engine state, and building it never runs a drift check.
type Context struct {
	Project     string          `json:"project"`
	FlowID      string          `json:"flow_id"`
	FlowName    string          `json:"flow_name,omitempty"`
	Description string          `json:"description,omitempty"`
	Section     string          `json:"section,omitempty"`
	Files       []string        `json:"files,omitempty"`
	Entities    []*graph.Entity `json:"entities,omitempty"`
	Memories    []memory.Match  `json:"memories,omitempty"`
	GraphStats  graph.Stats     `json:"graph_stats"`
	BuiltAt     time.Time       `json:"built_at"`
}

// Facade wires the graph registry, skill docs, and memory store together.
type Facade struct {
	cfg      config.Config
	graphs   *graph.Registry
	memories *memory.Store
	matcher  drift.Matcher
}

// New creates a Facade. The memory store may be nil; contexts then carry
// no memories.
func New(cfg config.Config, graphs *graph.Registry, memories *memory.Store) *Facade {
	return &Facade{cfg: cfg, graphs: graphs, memories: memories, matcher: drift.DefaultMatcher()}
}

// FullContext builds the bundle for a flow. The graph is rebuilt only when
// absent or older than the configured max age.
func (f *Facade) FullContext(ctx context.Context, sel Selector) (*Context, error) {
	if sel.ProjectName == "" || sel.ProjectPath == "" {
		return nil, fmt.Errorf("facade: project name and path are required")
	}

	g, err := f.graphs.Fresh(ctx, sel.ProjectName, sel.ProjectPath, f.cfg.GraphMaxAge)
	if err != nil {
		return nil, err
	}

	out := &Context{
		Project:    sel.ProjectName,
		FlowID:     skill.CanonicalID(sel.FlowID),
		GraphStats: g.Stats,
		BuiltAt:    time.Now().UTC(),
	}

	model, err := skill.Load(sel.ProjectPath, sel.ProjectName)
	if err != nil {
		return nil, err
	}

	flow := model.Flow(sel.FlowID)
	if flow == nil {
		// No documented flow: fall back to the whole project surface.
		out.Files = g.FilePaths()
	} else {
		out.FlowName = flow.Name
		out.Description = flow.Description
		out.Section = flow.Section
		out.Files, out.Entities = f.slice(g, flow)
	}

	if f.memories != nil {
		query := out.Description
		if query == "" {
			query = sel.FlowID + " " + sel.ProjectName
		}
		matches, err := f.memories.SearchSemantic(ctx, memory.SearchParams{
			Query:   query,
			Project: sel.ProjectName,
			Limit:   f.cfg.ContextMemories,
		})
		if err != nil {
			// Memory trouble degrades the bundle, it does not sink it.
			if !isTimeout(err) {
				return nil, err
			}
		} else {
			out.Memories = matches
		}
	}

	return out, nil
}

// slice computes the flow's reachable files and entities from its
// documented entry points.
func (f *Facade) slice(g *graph.Graph, flow *skill.Flow) ([]string, []*graph.Entity) {
	var entryIDs []string
	entryPaths := flow.Entries
	if len(entryPaths) == 0 {
		entryPaths = flow.Files
	}
	for _, p := range entryPaths {
		for _, structural := range g.FilePaths() {
			if f.matcher.Match(p, structural) {
				if e := g.FileEntity(structural); e != nil {
					entryIDs = append(entryIDs, e.ID)
				}
			}
		}
	}
	if len(entryIDs) == 0 {
		return nil, nil
	}

	reachable := g.Reachable(entryIDs)
	files := g.ReachableFiles(reachable)

	ids := make([]string, 0, len(reachable))
	for id := range reachable {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entities := make([]*graph.Entity, 0, len(ids))
	for _, id := range ids {
		if e := g.Entity(id); e != nil {
			entities = append(entities, e)
		}
	}
	return files, entities
}

func isTimeout(err error) bool {
	return errors.Is(err, fault.ErrTimeout)
}
