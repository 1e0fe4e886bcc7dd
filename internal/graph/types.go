// Package graph builds and queries the structural code graph of a project.
//
// The graph is derived state: it is rebuilt from source at will and holds no
// authoritative records. Durable pieces (entity signatures used for drift
// checks) live in the snapshot store, not here.
//
// Relations may form cycles (mutual calls), so the graph is stored as
// adjacency lists indexed by source and by target rather than as a tree.
// Traversal from any entry set is O(reachable set) regardless of cycles.
package graph

import (
	"sort"
	"time"
)

// EntityKind classifies a graph node.
type EntityKind string

const (
	KindModule   EntityKind = "module"
	KindFunction EntityKind = "function"
	KindFlow     EntityKind = "flow"
	KindFile     EntityKind = "file"
)

// RelationKind classifies a graph edge.
type RelationKind string

const (
	RelCalls     RelationKind = "calls"
	RelImports   RelationKind = "imports"
	RelBelongsTo RelationKind = "belongs_to"
	RelDocuments RelationKind = "documents"
)

// Entity is one structural node: a file, module, function, or flow.
// Unique within a project by (kind, qualified path).
type Entity struct {
	ID            string            `json:"id"`
	Kind          EntityKind        `json:"kind"`
	Name          string            `json:"name"`
	QualifiedPath string            `json:"qualified_path"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// Signature returns the entity's recorded signature attribute, or "".
func (e *Entity) Signature() string {
	return e.Attributes["signature"]
}

// FilePath returns the source file an entity was extracted from.
// For file entities this equals the qualified path.
func (e *Entity) FilePath() string {
	if e.Kind == KindFile {
		return e.QualifiedPath
	}
	return e.Attributes["file"]
}

// Relation is a directed edge between two entities.
type Relation struct {
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Kind     RelationKind `json:"kind"`
}

// FileError records a single file whose extraction failed. The file is
// skipped; the build itself still succeeds.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Stats summarizes a build. FilesProcessed counts files that were actually
// extracted; FilesReused counts files carried over from a prior graph by
// content hash.
type Stats struct {
	FilesProcessed int           `json:"files_processed"`
	FilesReused    int           `json:"files_reused"`
	FilesSkipped   int           `json:"files_skipped"`
	Entities       int           `json:"entities"`
	Relations      int           `json:"relations"`
	Duration       time.Duration `json:"duration"`
}

// Graph is an immutable-once-published snapshot of a project's structure.
type Graph struct {
	Project    string
	BuiltAt    time.Time
	FileErrors []FileError
	Stats      Stats

	entities map[string]*Entity // by id
	byPath   map[string]string  // file qualified path -> file entity id

	relations []Relation
	bySource  map[string][]int // entity id -> indexes into relations
	byTarget  map[string][]int

	relationSeen map[Relation]bool
}

// NewGraph creates an empty graph for a project.
func NewGraph(project string) *Graph {
	return &Graph{
		Project:      project,
		entities:     make(map[string]*Entity),
		byPath:       make(map[string]string),
		bySource:     make(map[string][]int),
		byTarget:     make(map[string][]int),
		relationSeen: make(map[Relation]bool),
	}
}

// AddEntity inserts an entity, replacing any prior entity with the same id.
func (g *Graph) AddEntity(e *Entity) {
	g.entities[e.ID] = e
	if e.Kind == KindFile {
		g.byPath[e.QualifiedPath] = e.ID
	}
}

// AddRelation inserts an edge. Duplicate edges are dropped so that
// re-extraction stays idempotent.
func (g *Graph) AddRelation(r Relation) {
	if g.relationSeen[r] {
		return
	}
	g.relationSeen[r] = true
	idx := len(g.relations)
	g.relations = append(g.relations, r)
	g.bySource[r.SourceID] = append(g.bySource[r.SourceID], idx)
	g.byTarget[r.TargetID] = append(g.byTarget[r.TargetID], idx)
}

// Entity returns the entity with the given id, or nil.
func (g *Graph) Entity(id string) *Entity {
	return g.entities[id]
}

// FileEntity returns the file entity for a qualified path, or nil.
func (g *Graph) FileEntity(path string) *Entity {
	id, ok := g.byPath[path]
	if !ok {
		return nil
	}
	return g.entities[id]
}

// Entities returns all entities sorted by id.
func (g *Graph) Entities() []*Entity {
	out := make([]*Entity, 0, len(g.entities))
	for _, e := range g.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relations returns all edges in insertion order.
func (g *Graph) Relations() []Relation {
	return g.relations
}

// Outgoing returns edges whose source is the given entity.
func (g *Graph) Outgoing(id string) []Relation {
	return g.relationsAt(g.bySource[id])
}

// Incoming returns edges whose target is the given entity.
func (g *Graph) Incoming(id string) []Relation {
	return g.relationsAt(g.byTarget[id])
}

func (g *Graph) relationsAt(idxs []int) []Relation {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Relation, len(idxs))
	for i, idx := range idxs {
		out[i] = g.relations[idx]
	}
	return out
}

// Reachable walks the graph from the given entry entity ids and returns the
// set of reachable entity ids (entries included, when present). It follows
// outgoing edges of every kind plus incoming belongs_to edges, so a file
// entry pulls in the functions it contains and a function entry pulls in
// its file. BFS with a visited set makes cycles (mutual calls) harmless.
func (g *Graph) Reachable(entryIDs []string) map[string]bool {
	visited := make(map[string]bool)
	var queue []string
	for _, id := range entryIDs {
		if g.entities[id] != nil && !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, r := range g.Outgoing(id) {
			if g.entities[r.TargetID] != nil && !visited[r.TargetID] {
				visited[r.TargetID] = true
				queue = append(queue, r.TargetID)
			}
		}
		for _, r := range g.Incoming(id) {
			if r.Kind != RelBelongsTo {
				continue
			}
			if g.entities[r.SourceID] != nil && !visited[r.SourceID] {
				visited[r.SourceID] = true
				queue = append(queue, r.SourceID)
			}
		}
	}
	return visited
}

// ReachableFiles maps a reachable entity set to the qualified paths of the
// source files involved.
func (g *Graph) ReachableFiles(reachable map[string]bool) []string {
	seen := make(map[string]bool)
	for id := range reachable {
		e := g.entities[id]
		if e == nil {
			continue
		}
		if p := e.FilePath(); p != "" {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FilePaths returns the qualified paths of every file entity, sorted.
func (g *Graph) FilePaths() []string {
	out := make([]string, 0, len(g.byPath))
	for p := range g.byPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
