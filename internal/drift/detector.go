package drift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/cortex/internal/graph"
	"github.com/HendryAvila/cortex/internal/skill"
)

// Detector runs drift checks: it refreshes the code graph, loads the skill
// model, and classifies mismatches per flow.
type Detector struct {
	graphs    *graph.Registry
	snapshots *graph.SnapshotStore
	records   *RecordStore
	matcher   Matcher
}

// NewDetector creates a Detector. A nil matcher selects DefaultMatcher,
// and records may be nil to skip persistence (used by tests that only
// care about classification).
func NewDetector(graphs *graph.Registry, snapshots *graph.SnapshotStore, records *RecordStore, matcher Matcher) *Detector {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	return &Detector{graphs: graphs, snapshots: snapshots, records: records, matcher: matcher}
}

// Check rebuilds the project's code graph, parses its skill document, and
// reports drift for every documented flow, or only flowID when non-empty.
// Prior persisted records for the checked flows are superseded, and the
// graph's signatures become the new snapshot baseline.
func (d *Detector) Check(ctx context.Context, projectPath, projectName, flowID string) (*Report, error) {
	g, err := d.graphs.Rebuild(ctx, projectName, projectPath)
	if err != nil {
		return nil, err
	}

	model, err := skill.Load(projectPath, projectName)
	if err != nil {
		return nil, err
	}

	var prevSigs map[string]string
	if d.snapshots != nil {
		prevSigs, err = d.snapshots.Signatures(projectName)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	report := &Report{Project: projectName, CheckedAt: now}
	var checkedFlows []string

	want := skill.CanonicalID(flowID)
	for _, flow := range model.Flows {
		if want != "" && flow.ID != want {
			continue
		}
		checkedFlows = append(checkedFlows, flow.ID)
		drifts := d.checkFlow(g, &flow, prevSigs, now)
		sort.SliceStable(drifts, func(i, j int) bool {
			return severityRank[drifts[i].Type] < severityRank[drifts[j].Type]
		})
		report.Drifts = append(report.Drifts, drifts...)
	}
	report.HasDrift = len(report.Drifts) > 0

	if d.records != nil && len(checkedFlows) > 0 {
		if err := d.records.SaveReport(projectName, checkedFlows, report.Drifts); err != nil {
			return nil, err
		}
	}
	if d.snapshots != nil {
		if err := d.snapshots.Record(g); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// checkFlow classifies drift for a single flow against the current graph.
func (d *Detector) checkFlow(g *graph.Graph, flow *skill.Flow, prevSigs map[string]string, now time.Time) []Record {
	var out []Record
	add := func(t Type, desc string) {
		out = append(out, Record{
			ID:          uuid.NewString(),
			FlowID:      flow.ID,
			Type:        t,
			Description: desc,
			DetectedAt:  now,
		})
	}

	projectFiles := g.FilePaths()

	// Resolve the flow's entry entities: declared entry paths first,
	// then documented behaviors by name, then any documented file.
	entryIDs := d.resolveEntries(g, flow)
	if len(entryIDs) == 0 {
		add(TypeMissingCode, fmt.Sprintf(
			"flow %q is declared in the skill doc but resolves to no structural entities", flow.ID))
		// Stale references are still reportable without structure.
		for _, doc := range flow.Files {
			if !matchAny(d.matcher, doc, projectFiles) {
				add(TypeStaleReference, fmt.Sprintf(
					"skill doc for %q references %q, which does not exist in the project", flow.ID, doc))
			}
		}
		return out
	}

	structuralFiles := g.ReachableFiles(g.Reachable(entryIDs))

	// Documented files absent from the project entirely.
	for _, doc := range flow.Files {
		if !matchAny(d.matcher, doc, projectFiles) {
			add(TypeStaleReference, fmt.Sprintf(
				"skill doc for %q references %q, which does not exist in the project", flow.ID, doc))
		}
	}

	// Structural files with no documented counterpart.
	for _, s := range structuralFiles {
		if !coveredBy(d.matcher, s, flow.Files) {
			add(TypeMissingDoc, fmt.Sprintf(
				"file %q is reachable from flow %q but the skill doc does not mention it", s, flow.ID))
		}
	}

	// Documented behaviors whose signature moved since the last snapshot.
	for _, b := range flow.Behaviors {
		e := findFunction(g, b.Name)
		if e == nil {
			continue // covered by missing_code/missing_doc classification
		}
		prev, ok := prevSigs[e.ID]
		if !ok || prev == "" {
			continue // no baseline yet
		}
		if cur := e.Signature(); cur != "" && cur != prev {
			add(TypeSignatureChange, fmt.Sprintf(
				"documented behavior %q changed signature: %q is now %q", b.Name, prev, cur))
		}
	}

	return out
}

// resolveEntries maps a flow's documented entry points to graph entity ids.
func (d *Detector) resolveEntries(g *graph.Graph, flow *skill.Flow) []string {
	var ids []string
	seen := make(map[string]bool)
	addEntity := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	entryPaths := flow.Entries
	if len(entryPaths) == 0 {
		entryPaths = flow.Files
	}
	for _, p := range entryPaths {
		for _, structural := range g.FilePaths() {
			if d.matcher.Match(p, structural) {
				if e := g.FileEntity(structural); e != nil {
					addEntity(e.ID)
				}
			}
		}
	}
	for _, b := range flow.Behaviors {
		if e := findFunction(g, b.Name); e != nil {
			addEntity(e.ID)
		}
	}
	return ids
}

// findFunction returns the first function entity with the given name.
func findFunction(g *graph.Graph, name string) *graph.Entity {
	for _, e := range g.Entities() {
		if e.Kind == graph.KindFunction && e.Name == name {
			return e
		}
	}
	return nil
}
