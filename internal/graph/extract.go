package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Extractor produces structural entities and relations from a single source
// file. The builder is polymorphic over extractors: one per file extension,
// registered at construction. Unsupported file types are simply skipped.
type Extractor interface {
	// Extensions returns the file extensions this extractor handles,
	// including the leading dot.
	Extensions() []string
	// Extract parses src (the file at relative path rel) and returns the
	// entities and relations found. The file entity itself is created by
	// the builder; extractors only add what lives inside the file.
	Extract(rel string, src []byte) ([]*Entity, []Relation, error)
}

// EntityID builds the canonical id {kind}.{path}[:{name}].
func EntityID(kind EntityKind, path, name string) string {
	if name == "" {
		return fmt.Sprintf("%s.%s", kind, path)
	}
	return fmt.Sprintf("%s.%s:%s", kind, path, name)
}

// FileID is the id of the file entity for a qualified path.
func FileID(path string) string {
	return EntityID(KindFile, path, "")
}

// contentHash returns a short stable hash of file contents. It is recorded
// on file entities and compared on rebuild so unchanged files skip
// re-extraction.
func contentHash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:8])
}

// span holds a function's declaration line range, used to attribute call
// sites to their enclosing function.
type span struct {
	name  string
	id    string
	start int // 0-based line index of the declaration
	end   int // inclusive
}

// braceBlockEnd finds the closing line of a brace-delimited block starting
// at line start. Falls back to the declaration line for one-liners or
// unbalanced input.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	if opened {
		return len(lines) - 1
	}
	return start
}

// indentBlockEnd finds the last line of an indentation-delimited block
// (Python) whose header is at line start.
func indentBlockEnd(lines []string, start int) int {
	headerIndent := indentOf(lines[start])
	end := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= headerIndent {
			return end
		}
		end = i
	}
	return end
}

func indentOf(line string) int {
	n := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// callEdges scans each function span for call sites of the other functions
// in the same file and returns the resulting calls relations. A lexical
// heuristic, not a resolver: it looks for `name(` outside the callee's own
// span, which matches how the structural layer is used (reachability, not
// type checking).
func callEdges(lines []string, spans []span) []Relation {
	var out []Relation
	for _, caller := range spans {
		for _, callee := range spans {
			if callee.name == caller.name {
				continue
			}
			needle := callee.name + "("
			for i := caller.start + 1; i <= caller.end && i < len(lines); i++ {
				if containsToken(lines[i], needle) {
					out = append(out, Relation{SourceID: caller.id, TargetID: callee.id, Kind: RelCalls})
					break
				}
			}
		}
	}
	return out
}

// containsToken reports whether needle occurs in line at a position not
// preceded by an identifier character (so `total(` does not match `subtotal(`).
func containsToken(line, needle string) bool {
	idx := 0
	for {
		pos := strings.Index(line[idx:], needle)
		if pos < 0 {
			return false
		}
		abs := idx + pos
		if abs == 0 || !isIdentChar(rune(line[abs-1])) {
			return true
		}
		idx = abs + 1
	}
}

func isIdentChar(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
