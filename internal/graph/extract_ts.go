package graph

import (
	"regexp"
	"strings"
)

// TSExtractor extracts functions and import edges from TypeScript and
// JavaScript source. Patterns mirror the usual surface forms: function
// declarations, exported arrow constants, and class declarations (classes
// are modeled as module entities, a named unit that groups functions).
type TSExtractor struct{}

var (
	tsImportRe   = regexp.MustCompile(`^import\s+(?:(?:\{[^}]*\}|\*\s+as\s+\w+|\w+)\s*,?\s*)*from\s+['"]([^'"]+)['"]`)
	tsRequireRe  = regexp.MustCompile(`(?:const|let|var)\s+\w+\s*=\s*require\(['"]([^'"]+)['"]\)`)
	tsFunctionRe = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+(\w+)`)
	tsArrowRe    = regexp.MustCompile(`^(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*(?::\s*[^=]+)?=>`)
	tsClassRe    = regexp.MustCompile(`^(?:export\s+)?(?:abstract\s+)?class\s+(\w+)`)
)

func (TSExtractor) Extensions() []string { return []string{".ts", ".tsx", ".js", ".jsx"} }

func (TSExtractor) Extract(rel string, src []byte) ([]*Entity, []Relation, error) {
	lines := strings.Split(string(src), "\n")
	fileID := FileID(rel)

	var entities []*Entity
	var relations []Relation
	var spans []span

	for i, line := range lines {
		if m := tsImportRe.FindStringSubmatch(line); m != nil {
			relations = append(relations, importRelation(fileID, m[1]))
			continue
		}
		if m := tsRequireRe.FindStringSubmatch(line); m != nil {
			relations = append(relations, importRelation(fileID, m[1]))
			continue
		}

		var name string
		if m := tsFunctionRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := tsArrowRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name != "" {
			end := braceBlockEnd(lines, i)
			fnID := EntityID(KindFunction, rel, name)
			entities = append(entities, &Entity{
				ID:            fnID,
				Kind:          KindFunction,
				Name:          name,
				QualifiedPath: rel + ":" + name,
				Attributes: map[string]string{
					"file":      rel,
					"language":  "typescript",
					"signature": signatureOf(line),
				},
			})
			relations = append(relations, Relation{SourceID: fnID, TargetID: fileID, Kind: RelBelongsTo})
			spans = append(spans, span{name: name, id: fnID, start: i, end: end})
			continue
		}

		if m := tsClassRe.FindStringSubmatch(line); m != nil {
			clsID := EntityID(KindModule, rel, m[1])
			entities = append(entities, &Entity{
				ID:            clsID,
				Kind:          KindModule,
				Name:          m[1],
				QualifiedPath: rel + ":" + m[1],
				Attributes: map[string]string{
					"file":      rel,
					"language":  "typescript",
					"signature": signatureOf(line),
				},
			})
			relations = append(relations, Relation{SourceID: clsID, TargetID: fileID, Kind: RelBelongsTo})
		}
	}

	relations = append(relations, callEdges(lines, spans)...)
	return entities, relations, nil
}

// signatureOf normalizes a declaration line into a stable signature string.
func signatureOf(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimSuffix(s, "{")
	s = strings.TrimSuffix(s, "=>")
	return strings.TrimSpace(s)
}
