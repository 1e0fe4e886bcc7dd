package graph

import (
	"regexp"
	"strings"
)

// GoExtractor extracts modules, functions, and import/call edges from Go
// source using line-oriented matching. It is deliberately not a full parser:
// the structural layer needs names, signatures, and edges, not types.
type GoExtractor struct{}

var (
	goPackageRe = regexp.MustCompile(`^package\s+(\w+)`)
	goFuncRe    = regexp.MustCompile(`^func\s+(?:\((?:[^)]*)\)\s+)?(\w+)\s*\(`)
	goImportRe  = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
)

func (GoExtractor) Extensions() []string { return []string{".go"} }

func (GoExtractor) Extract(rel string, src []byte) ([]*Entity, []Relation, error) {
	lines := strings.Split(string(src), "\n")
	fileID := FileID(rel)

	var entities []*Entity
	var relations []Relation
	var spans []span

	inImportBlock := false
	for i, line := range lines {
		if m := goPackageRe.FindStringSubmatch(line); m != nil {
			modID := EntityID(KindModule, rel, m[1])
			entities = append(entities, &Entity{
				ID:            modID,
				Kind:          KindModule,
				Name:          m[1],
				QualifiedPath: rel + ":" + m[1],
				Attributes:    map[string]string{"file": rel, "language": "go"},
			})
			relations = append(relations, Relation{SourceID: fileID, TargetID: modID, Kind: RelBelongsTo})
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inImportBlock = true
			continue
		case inImportBlock && trimmed == ")":
			inImportBlock = false
			continue
		case inImportBlock:
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				relations = append(relations, importRelation(fileID, m[1]))
			}
			continue
		case strings.HasPrefix(trimmed, "import "):
			if m := goImportRe.FindStringSubmatch(strings.TrimPrefix(trimmed, "import ")); m != nil {
				relations = append(relations, importRelation(fileID, m[1]))
			}
			continue
		}

		if m := goFuncRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			end := braceBlockEnd(lines, i)
			fnID := EntityID(KindFunction, rel, name)
			entities = append(entities, &Entity{
				ID:            fnID,
				Kind:          KindFunction,
				Name:          name,
				QualifiedPath: rel + ":" + name,
				Attributes: map[string]string{
					"file":      rel,
					"language":  "go",
					"signature": strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "{")),
				},
			})
			relations = append(relations, Relation{SourceID: fnID, TargetID: fileID, Kind: RelBelongsTo})
			spans = append(spans, span{name: name, id: fnID, start: i, end: end})
		}
	}

	relations = append(relations, callEdges(lines, spans)...)
	return entities, relations, nil
}

// importRelation links a file to an imported module by path. The target may
// be outside the graph (stdlib, third party); such dangling edges are kept
// in the relation list but skipped during traversal.
func importRelation(fileID, importPath string) Relation {
	return Relation{
		SourceID: fileID,
		TargetID: EntityID(KindModule, importPath, ""),
		Kind:     RelImports,
	}
}
