// Package skill parses a project's skill documentation into the same
// entity/flow vocabulary as the code graph.
//
// A skill doc is markdown with one `## Flow: <name>` section per documented
// capability. Within a section, backticked tokens are references: tokens
// that look like paths become the flow's documented file set, `Entry:`
// lines declare the flow's entry points, and identifier-like tokens become
// documented behaviors (functions the section claims exist).
//
// Parsing is read-only and idempotent per document bytes. A flow with no
// section is simply absent from the model.
package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Behavior is a documented callable the skill section references.
type Behavior struct {
	Name string `json:"name"`
	Line string `json:"line"` // the sentence that mentioned it
}

// Flow is one documented capability.
type Flow struct {
	ID          string     `json:"id"` // "flow.<name>"
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Entries     []string   `json:"entries"` // declared entry file paths
	Files       []string   `json:"files"`   // all referenced file paths
	Behaviors   []Behavior `json:"behaviors"`
	Section     string     `json:"-"` // raw markdown of the section
}

// Model is the parsed skill document. Flows preserves declaration order.
type Model struct {
	Flows []Flow
}

// Flow returns the flow with the given id (accepts "auth" or "flow.auth"),
// or nil if the document has no such section.
func (m *Model) Flow(id string) *Flow {
	id = CanonicalID(id)
	for i := range m.Flows {
		if m.Flows[i].ID == id {
			return &m.Flows[i]
		}
	}
	return nil
}

// CanonicalID normalizes a flow identifier to the "flow.<name>" form.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, "flow.") {
		id = "flow." + id
	}
	return strings.ToLower(id)
}

var (
	flowHeaderRe = regexp.MustCompile(`(?m)^##\s+Flow:\s*(.+?)\s*$`)
	sectionEndRe = regexp.MustCompile(`(?m)^#{1,2}\s`)
	backtickRe   = regexp.MustCompile("`([^`]+)`")
	entryLineRe  = regexp.MustCompile(`(?i)^\s*(?:[-*]\s+)?Entry(?:\s+points?)?:\s*(.*)$`)
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// sourceExtensions marks backticked tokens as file references even without
// a directory component.
var sourceExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".java": true, ".rb": true, ".rs": true,
}

// Parse extracts the flow model from skill document bytes.
func Parse(doc []byte) (*Model, error) {
	text := string(doc)
	headers := flowHeaderRe.FindAllStringSubmatchIndex(text, -1)

	m := &Model{}
	for i, h := range headers {
		name := strings.TrimSpace(text[h[2]:h[3]])
		sectionStart := h[1]
		sectionEnd := len(text)
		if i+1 < len(headers) {
			sectionEnd = headers[i+1][0]
		} else if next := sectionEndRe.FindStringIndex(text[sectionStart:]); next != nil {
			sectionEnd = sectionStart + next[0]
		}
		section := text[sectionStart:sectionEnd]

		flow := Flow{
			ID:      CanonicalID(name),
			Name:    strings.ToLower(name),
			Section: strings.TrimSpace(section),
		}
		parseSection(&flow, section)
		m.Flows = append(m.Flows, flow)
	}
	return m, nil
}

// parseSection fills a flow from its section body.
func parseSection(flow *Flow, section string) {
	seenFile := make(map[string]bool)
	seenEntry := make(map[string]bool)
	seenBehavior := make(map[string]bool)
	var descLines []string

	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := entryLineRe.FindStringSubmatch(line); m != nil {
			for _, tok := range backtickRe.FindAllStringSubmatch(m[1], -1) {
				p := normalizePath(tok[1])
				if p != "" && !seenEntry[p] {
					seenEntry[p] = true
					flow.Entries = append(flow.Entries, p)
				}
			}
			continue
		}

		for _, tok := range backtickRe.FindAllStringSubmatch(line, -1) {
			ref := strings.TrimSpace(tok[1])
			switch {
			case isPathRef(ref):
				p := normalizePath(ref)
				if !seenFile[p] {
					seenFile[p] = true
					flow.Files = append(flow.Files, p)
				}
			case identRe.MatchString(ref):
				if !seenBehavior[ref] {
					seenBehavior[ref] = true
					flow.Behaviors = append(flow.Behaviors, Behavior{Name: ref, Line: trimmed})
				}
			}
		}

		if trimmed != "" && !strings.HasPrefix(trimmed, "-") && !strings.HasPrefix(trimmed, "*") &&
			!strings.HasPrefix(trimmed, "#") && len(descLines) < 3 {
			descLines = append(descLines, trimmed)
		}
	}

	// Entry paths are documented files too.
	for _, p := range flow.Entries {
		if !seenFile[p] {
			seenFile[p] = true
			flow.Files = append(flow.Files, p)
		}
	}
	flow.Description = strings.Join(descLines, " ")
}

// isPathRef reports whether a backticked token refers to a source file.
func isPathRef(ref string) bool {
	if strings.ContainsAny(ref, " \t") {
		return false
	}
	if strings.Contains(ref, "/") {
		return true
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(ref))]
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	return filepath.ToSlash(p)
}

// docCandidates are the locations searched for a project's skill document,
// in order.
func docCandidates(projectPath, projectName string) []string {
	return []string{
		filepath.Join(projectPath, "SKILL.md"),
		filepath.Join(projectPath, ".claude", "skills", projectName, "SKILL.md"),
		filepath.Join(projectPath, "docs", "SKILL.md"),
	}
}

// Load finds and parses the project's skill document. A missing document
// yields an empty model rather than an error, since a project may
// legitimately have no skill doc yet.
func Load(projectPath, projectName string) (*Model, error) {
	for _, candidate := range docCandidates(projectPath, projectName) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("skill: reading %s: %w", candidate, err)
		}
		return Parse(data)
	}
	return &Model{}, nil
}
