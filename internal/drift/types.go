// Package drift reconciles what the skill documentation claims against what
// the code graph actually contains, per documented flow.
//
// Detection is read-only analysis: it never touches the skill doc or the
// code. Finding nothing is success, not an error.
package drift

import "time"

// Type classifies one detected mismatch.
type Type string

const (
	// TypeMissingCode: a flow is declared in the skill doc but resolves
	// to zero structural entities.
	TypeMissingCode Type = "missing_code"
	// TypeMissingDoc: a structural file is reachable from the flow's
	// entry points but no documented entry (or alias) covers it.
	TypeMissingDoc Type = "missing_doc"
	// TypeSignatureChange: a documented behavior's structural signature
	// differs from the last recorded graph snapshot.
	TypeSignatureChange Type = "signature_change"
	// TypeStaleReference: the skill doc references a file absent from
	// the project.
	TypeStaleReference Type = "stale_reference"
)

// severityRank orders drift types within a flow, most severe first.
var severityRank = map[Type]int{
	TypeMissingCode:     0,
	TypeMissingDoc:      1,
	TypeSignatureChange: 2,
	TypeStaleReference:  3,
}

// Record is one immutable detected drift. A later check for the same flow
// supersedes prior records; it never mutates them.
type Record struct {
	ID          string    `json:"id"`
	FlowID      string    `json:"flow_id"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Report is the outcome of one drift check. Drifts is ordered by flow
// declaration order, then by type severity within a flow.
type Report struct {
	Project   string    `json:"project"`
	HasDrift  bool      `json:"has_drift"`
	Drifts    []Record  `json:"drifts"`
	CheckedAt time.Time `json:"checked_at"`
}
