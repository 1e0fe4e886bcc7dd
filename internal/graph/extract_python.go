package graph

import (
	"regexp"
	"strings"
)

// PyExtractor extracts functions, classes, and import edges from Python
// source. Indentation delimits blocks; only top-level and class-level defs
// are captured (nested closures belong to their enclosing function's span).
type PyExtractor struct{}

var (
	pyImportRe     = regexp.MustCompile(`^import\s+([\w.]+)`)
	pyFromImportRe = regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+`)
	pyDefRe        = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(`)
	pyClassRe      = regexp.MustCompile(`^class\s+(\w+)`)
)

func (PyExtractor) Extensions() []string { return []string{".py"} }

func (PyExtractor) Extract(rel string, src []byte) ([]*Entity, []Relation, error) {
	lines := strings.Split(string(src), "\n")
	fileID := FileID(rel)

	var entities []*Entity
	var relations []Relation
	var spans []span

	for i, line := range lines {
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			relations = append(relations, importRelation(fileID, m[1]))
			continue
		}
		if m := pyFromImportRe.FindStringSubmatch(line); m != nil {
			relations = append(relations, importRelation(fileID, m[1]))
			continue
		}

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			clsID := EntityID(KindModule, rel, m[1])
			entities = append(entities, &Entity{
				ID:            clsID,
				Kind:          KindModule,
				Name:          m[1],
				QualifiedPath: rel + ":" + m[1],
				Attributes: map[string]string{
					"file":      rel,
					"language":  "python",
					"signature": strings.TrimSuffix(strings.TrimSpace(line), ":"),
				},
			})
			relations = append(relations, Relation{SourceID: clsID, TargetID: fileID, Kind: RelBelongsTo})
			continue
		}

		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			// Skip deeply nested defs; indent > 4 means inside a function.
			if len(m[1]) > 4 {
				continue
			}
			name := m[2]
			end := indentBlockEnd(lines, i)
			fnID := EntityID(KindFunction, rel, name)
			entities = append(entities, &Entity{
				ID:            fnID,
				Kind:          KindFunction,
				Name:          name,
				QualifiedPath: rel + ":" + name,
				Attributes: map[string]string{
					"file":      rel,
					"language":  "python",
					"signature": strings.TrimSuffix(strings.TrimSpace(line), ":"),
				},
			})
			relations = append(relations, Relation{SourceID: fnID, TargetID: fileID, Kind: RelBelongsTo})
			spans = append(spans, span{name: name, id: fnID, start: i, end: end})
		}
	}

	relations = append(relations, callEdges(lines, spans)...)
	return entities, relations, nil
}
