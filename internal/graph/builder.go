package graph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/cortex/internal/fault"
)

// defaultIgnoreDirs are directory names never walked during a build.
var defaultIgnoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"coverage":     true,
}

// Builder walks a project tree and produces its code graph.
type Builder struct {
	byExt      map[string]Extractor
	ignoreDirs map[string]bool
}

// NewBuilder creates a Builder with the given extractors registered by
// extension. extraIgnoreDirs extends the built-in ignore set.
func NewBuilder(extractors []Extractor, extraIgnoreDirs []string) *Builder {
	b := &Builder{
		byExt:      make(map[string]Extractor),
		ignoreDirs: make(map[string]bool, len(defaultIgnoreDirs)+len(extraIgnoreDirs)),
	}
	for d := range defaultIgnoreDirs {
		b.ignoreDirs[d] = true
	}
	for _, d := range extraIgnoreDirs {
		b.ignoreDirs[d] = true
	}
	for _, ex := range extractors {
		for _, ext := range ex.Extensions() {
			b.byExt[ext] = ex
		}
	}
	return b
}

// DefaultBuilder returns a Builder with the stock extractors.
func DefaultBuilder(extraIgnoreDirs []string) *Builder {
	return NewBuilder([]Extractor{GoExtractor{}, TSExtractor{}, PyExtractor{}, JavaExtractor{}}, extraIgnoreDirs)
}

// Build scans root and returns a fresh graph for the project, re-extracting
// every supported file. Re-running on an unchanged tree yields identical
// entity and relation sets.
func (b *Builder) Build(ctx context.Context, project, root string) (*Graph, error) {
	return b.BuildAgainst(ctx, project, root, nil)
}

// prevFile is one file's worth of extraction output from an earlier graph,
// reusable when the file's content hash is unchanged.
type prevFile struct {
	file      *Entity
	entities  []*Entity
	relations []Relation
}

// indexByFile groups a graph's entities and relations by source file so a
// later build can carry unchanged files over wholesale. Every relation an
// extractor emits has its source inside the file, so grouping by the source
// entity's file captures the file's full output.
func indexByFile(g *Graph) map[string]*prevFile {
	idx := make(map[string]*prevFile)
	get := func(rel string) *prevFile {
		pf := idx[rel]
		if pf == nil {
			pf = &prevFile{}
			idx[rel] = pf
		}
		return pf
	}
	for _, e := range g.Entities() {
		rel := e.FilePath()
		if rel == "" {
			continue
		}
		if e.Kind == KindFile {
			get(rel).file = e
		} else {
			get(rel).entities = append(get(rel).entities, e)
		}
	}
	for _, r := range g.Relations() {
		src := g.Entity(r.SourceID)
		if src == nil {
			continue
		}
		if rel := src.FilePath(); rel != "" {
			get(rel).relations = append(get(rel).relations, r)
		}
	}
	return idx
}

// BuildAgainst scans root and returns a fresh graph for the project. Files
// whose content hash matches their entry in prev reuse the prior extraction
// instead of being re-parsed; only changed, new, or removed files alter the
// result. prev may be nil for a full build. Reused entities are shared with
// prev, which is safe because graphs are never mutated once published.
//
// A single file's extraction error is recorded on the graph and the file
// skipped; the build only fails if root itself is unreadable or ctx expires.
// A build cut short by ctx is discarded entirely; no partial graph escapes.
func (b *Builder) BuildAgainst(ctx context.Context, project, root string, prev *Graph) (*Graph, error) {
	start := time.Now()

	var prevIdx map[string]*prevFile
	if prev != nil {
		prevIdx = indexByFile(prev)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project path %q is not a readable directory: %w", root, fault.ErrBuild)
	}

	g := NewGraph(project)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A subdirectory vanished or is unreadable: record and move on.
			g.FileErrors = append(g.FileErrors, FileError{Path: path, Err: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && b.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ex, ok := b.byExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			g.Stats.FilesSkipped++
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		src, err := os.ReadFile(path)
		if err != nil {
			g.FileErrors = append(g.FileErrors, FileError{Path: rel, Err: err.Error()})
			return nil
		}

		hash := contentHash(src)
		if pf := prevIdx[rel]; pf != nil && pf.file != nil && pf.file.Attributes["hash"] == hash {
			g.AddEntity(pf.file)
			for _, e := range pf.entities {
				g.AddEntity(e)
			}
			for _, rl := range pf.relations {
				g.AddRelation(rl)
			}
			g.Stats.FilesReused++
			return nil
		}

		g.AddEntity(&Entity{
			ID:            FileID(rel),
			Kind:          KindFile,
			Name:          filepath.Base(rel),
			QualifiedPath: rel,
			Attributes:    map[string]string{"hash": hash},
		})

		entities, relations, err := ex.Extract(rel, src)
		if err != nil {
			g.FileErrors = append(g.FileErrors, FileError{Path: rel, Err: err.Error()})
			return nil
		}
		for _, e := range entities {
			g.AddEntity(e)
		}
		for _, r := range relations {
			g.AddRelation(r)
		}
		g.Stats.FilesProcessed++
		return nil
	})

	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, fault.Timeout("graph build for "+project, ctx.Err())
		}
		return nil, fmt.Errorf("walking %q: %v: %w", root, walkErr, fault.ErrBuild)
	}

	g.BuiltAt = time.Now()
	g.Stats.Entities = len(g.entities)
	g.Stats.Relations = len(g.relations)
	g.Stats.Duration = time.Since(start)
	return g, nil
}
