package graph

import (
	"regexp"
	"strings"
)

// JavaExtractor extracts types, methods, and import edges from Java source.
// Classes, interfaces, enums, and annotation types become module entities;
// an inner type belongs to its enclosing type rather than to the file.
// Comments are blanked before scanning so declarations quoted in javadoc or
// commented-out code are not picked up.
type JavaExtractor struct{}

var (
	javaPackageRe = regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;`)
	javaImportRe  = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+?)(?:\.\*)?\s*;`)
	javaTypeRe    = regexp.MustCompile(`^\s*(?:(?:public|private|protected|abstract|static|final)\s+)*(class|interface|enum|@interface)\s+(\w+)`)
	javaMethodRe  = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)*(?:<[^>]+>\s+)?(?:void|int|long|short|byte|char|boolean|float|double|[A-Z][\w.<>\[\]]*)\s+(\w+)\s*\([^)]*\)(?:\s+throws\s+[\w\s,.]+)?\s*(?:\{|;)`)
)

func (JavaExtractor) Extensions() []string { return []string{".java"} }

func (JavaExtractor) Extract(rel string, src []byte) ([]*Entity, []Relation, error) {
	lines := strings.Split(stripJavaComments(string(src)), "\n")
	fileID := FileID(rel)

	var entities []*Entity
	var relations []Relation
	var spans []span
	var typeSpans []span
	pkg := ""

	for i, line := range lines {
		if m := javaPackageRe.FindStringSubmatch(line); m != nil {
			pkg = m[1]
			continue
		}
		if m := javaImportRe.FindStringSubmatch(line); m != nil {
			relations = append(relations, importRelation(fileID, m[1]))
			continue
		}

		if m := javaTypeRe.FindStringSubmatch(line); m != nil {
			construct, name := m[1], m[2]
			if construct == "@interface" {
				construct = "annotation"
			}
			end := braceBlockEnd(lines, i)
			id := EntityID(KindModule, rel, name)
			attrs := map[string]string{
				"file":      rel,
				"language":  "java",
				"construct": construct,
				"signature": signatureOf(line),
			}
			if pkg != "" {
				attrs["package"] = pkg
			}
			entities = append(entities, &Entity{
				ID:            id,
				Kind:          KindModule,
				Name:          name,
				QualifiedPath: rel + ":" + name,
				Attributes:    attrs,
			})
			owner := fileID
			for j := len(typeSpans) - 1; j >= 0; j-- {
				if typeSpans[j].start < i && i <= typeSpans[j].end {
					owner = typeSpans[j].id
					break
				}
			}
			relations = append(relations, Relation{SourceID: id, TargetID: owner, Kind: RelBelongsTo})
			typeSpans = append(typeSpans, span{name: name, id: id, start: i, end: end})
			continue
		}

		if m := javaMethodRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			// Abstract and interface methods end in ";" and have no body.
			end := i
			if strings.Contains(line, "{") {
				end = braceBlockEnd(lines, i)
			}
			fnID := EntityID(KindFunction, rel, name)
			entities = append(entities, &Entity{
				ID:            fnID,
				Kind:          KindFunction,
				Name:          name,
				QualifiedPath: rel + ":" + name,
				Attributes: map[string]string{
					"file":      rel,
					"language":  "java",
					"signature": strings.TrimSpace(strings.TrimSuffix(signatureOf(line), ";")),
				},
			})
			relations = append(relations, Relation{SourceID: fnID, TargetID: fileID, Kind: RelBelongsTo})
			spans = append(spans, span{name: name, id: fnID, start: i, end: end})
		}
	}

	relations = append(relations, callEdges(lines, spans)...)
	return entities, relations, nil
}

// stripJavaComments blanks line and block comments, preserving newlines so
// line indexes stay aligned with the input. String and char literals are
// honored, so "//" inside a string does not start a comment.
func stripJavaComments(src string) string {
	const (
		code = iota
		lineComment
		blockComment
		strLit
		charLit
	)
	out := []byte(src)
	state := code
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case code:
			switch {
			case c == '/' && i+1 < len(out) && out[i+1] == '/':
				state = lineComment
				out[i] = ' '
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				state = blockComment
				out[i] = ' '
			case c == '"':
				state = strLit
			case c == '\'':
				state = charLit
			}
		case lineComment:
			if c == '\n' {
				state = code
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				i++
				out[i] = ' '
				state = code
			} else if c != '\n' {
				out[i] = ' '
			}
		case strLit:
			if c == '\\' {
				i++
			} else if c == '"' {
				state = code
			}
		case charLit:
			if c == '\\' {
				i++
			} else if c == '\'' {
				state = code
			}
		}
	}
	return string(out)
}
