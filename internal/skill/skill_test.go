package skill

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDoc = `# My Project

Some intro text.

## Flow: Auth

Handles login and session refresh.

- Entry: ` + "`src/auth/login.go`" + `
- Uses ` + "`src/auth/session.go`" + ` and the ` + "`RefreshSession`" + ` helper.
- Tokens are stored in ` + "`token-store.go`" + `.

## Flow: Billing

Charges customers monthly.

- Entry points: ` + "`billing/charge.py`" + `

## Notes

This section is not a flow.
`

func TestParseFindsFlows(t *testing.T) {
	m, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Flows) != 2 {
		t.Fatalf("got %d flows, want 2", len(m.Flows))
	}
	if m.Flows[0].ID != "flow.auth" || m.Flows[1].ID != "flow.billing" {
		t.Errorf("flow ids = %s, %s", m.Flows[0].ID, m.Flows[1].ID)
	}
}

func TestParseAuthFlowDetails(t *testing.T) {
	m, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	auth := m.Flow("auth")
	if auth == nil {
		t.Fatal("Flow(auth) = nil")
	}

	if len(auth.Entries) != 1 || auth.Entries[0] != "src/auth/login.go" {
		t.Errorf("entries = %v", auth.Entries)
	}

	wantFiles := map[string]bool{
		"src/auth/login.go":   false,
		"src/auth/session.go": false,
		"token-store.go":      false,
	}
	for _, f := range auth.Files {
		if _, ok := wantFiles[f]; ok {
			wantFiles[f] = true
		} else {
			t.Errorf("unexpected file %q", f)
		}
	}
	for f, seen := range wantFiles {
		if !seen {
			t.Errorf("missing file %q", f)
		}
	}

	foundBehavior := false
	for _, b := range auth.Behaviors {
		if b.Name == "RefreshSession" {
			foundBehavior = true
		}
	}
	if !foundBehavior {
		t.Errorf("behaviors = %v, want RefreshSession", auth.Behaviors)
	}

	if auth.Description == "" {
		t.Error("description should capture the leading sentence")
	}
}

func TestParseSectionBoundaries(t *testing.T) {
	m, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	billing := m.Flow("flow.billing")
	if billing == nil {
		t.Fatal("Flow(flow.billing) = nil")
	}
	if len(billing.Entries) != 1 || billing.Entries[0] != "billing/charge.py" {
		t.Errorf("billing entries = %v", billing.Entries)
	}
	// The Notes section must not leak into the billing flow.
	for _, f := range billing.Files {
		if f != "billing/charge.py" {
			t.Errorf("billing picked up foreign file %q", f)
		}
	}
}

func TestParseIsIdempotent(t *testing.T) {
	first, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(first.Flows) != len(second.Flows) {
		t.Fatalf("flow counts differ: %d vs %d", len(first.Flows), len(second.Flows))
	}
	for i := range first.Flows {
		if first.Flows[i].ID != second.Flows[i].ID {
			t.Errorf("flow %d id differs: %s vs %s", i, first.Flows[i].ID, second.Flows[i].ID)
		}
		if len(first.Flows[i].Files) != len(second.Flows[i].Files) {
			t.Errorf("flow %s file counts differ", first.Flows[i].ID)
		}
	}
}

func TestCanonicalID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"auth", "flow.auth"},
		{"flow.auth", "flow.auth"},
		{"Auth", "flow.auth"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CanonicalID(tc.in); got != tc.want {
			t.Errorf("CanonicalID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadMissingDocIsEmptyModel(t *testing.T) {
	m, err := Load(t.TempDir(), "proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Flows) != 0 {
		t.Errorf("got %d flows from a project without a skill doc", len(m.Flows))
	}
}

func TestLoadReadsSkillDoc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	m, err := Load(dir, "proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Flows) != 2 {
		t.Errorf("got %d flows, want 2", len(m.Flows))
	}
}

func TestLoadNestedSkillDoc(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, ".claude", "skills", "proj")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "SKILL.md"), []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	m, err := Load(dir, "proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Flows) != 2 {
		t.Errorf("got %d flows, want 2", len(m.Flows))
	}
}
