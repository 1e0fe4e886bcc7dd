package drift

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/cortex/internal/db"
	"github.com/HendryAvila/cortex/internal/graph"
)

func testDetector(t *testing.T) (*Detector, *RecordStore) {
	t.Helper()
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	snapshots, err := graph.NewSnapshotStore(conn)
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	records, err := NewRecordStore(conn)
	if err != nil {
		t.Fatalf("record store: %v", err)
	}
	registry := graph.NewRegistry(graph.DefaultBuilder(nil), 0)
	return NewDetector(registry, snapshots, records, nil), records
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func typesOf(records []Record) []Type {
	out := make([]Type, len(records))
	for i, r := range records {
		out[i] = r.Type
	}
	return out
}

func TestCheckCleanFlow(t *testing.T) {
	d, records := testDetector(t)
	root := writeProject(t, map[string]string{
		"main.go": "package app\n\nfunc Run() {\n\thelper()\n}\n\nfunc helper() {}\n",
		"SKILL.md": "## Flow: Run\n\nRuns the app.\n\n- Entry: `main.go`\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.HasDrift {
		t.Errorf("clean project reported drift: %v", report.Drifts)
	}

	active, err := records.Active("proj")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("got %d active records, want 0", len(active))
	}
}

func TestCheckStaleReference(t *testing.T) {
	d, _ := testDetector(t)
	root := writeProject(t, map[string]string{
		"main.go": "package app\n\nfunc Run() {}\n",
		"SKILL.md": "## Flow: Run\n\n- Entry: `main.go`\n- See `gone.go` for details.\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(report.Drifts) != 1 {
		t.Fatalf("got %d drifts, want 1: %v", len(report.Drifts), report.Drifts)
	}
	got := report.Drifts[0]
	if got.Type != TypeStaleReference {
		t.Errorf("type = %s, want %s", got.Type, TypeStaleReference)
	}
	if !strings.Contains(got.Description, "gone.go") {
		t.Errorf("description %q should name the missing file", got.Description)
	}
}

func TestCheckMissingCodeOrdersFirst(t *testing.T) {
	d, _ := testDetector(t)
	root := writeProject(t, map[string]string{
		"main.go":  "package app\n\nfunc Run() {}\n",
		"SKILL.md": "## Flow: Ghost\n\n- Entry: `nothing.go`\n",
	})

	report, err := d.Check(context.Background(), root, "", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	got := typesOf(report.Drifts)
	if len(got) != 2 || got[0] != TypeMissingCode || got[1] != TypeStaleReference {
		t.Errorf("drift types = %v, want [missing_code stale_reference]", got)
	}
}

func TestCheckMissingDocViaBehavior(t *testing.T) {
	d, _ := testDetector(t)
	root := writeProject(t, map[string]string{
		"main.go":   "package app\n\nfunc Run() {}\n",
		"render.go": "package app\n\nfunc Render() {}\n",
		"SKILL.md":  "## Flow: Draw\n\n- Entry: `main.go`\n- Calls `Render` for output.\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(report.Drifts) != 1 {
		t.Fatalf("got %d drifts, want 1: %v", len(report.Drifts), report.Drifts)
	}
	got := report.Drifts[0]
	if got.Type != TypeMissingDoc {
		t.Errorf("type = %s, want %s", got.Type, TypeMissingDoc)
	}
	if !strings.Contains(got.Description, "render.go") {
		t.Errorf("description %q should name the undocumented file", got.Description)
	}
}

func TestCheckAliasAvoidsFalseDrift(t *testing.T) {
	d, _ := testDetector(t)
	root := writeProject(t, map[string]string{
		"pkg/data_loader.go": "package pkg\n\nfunc Load() {}\n",
		"SKILL.md":           "## Flow: Load\n\n- Entry: `data-loader.go`\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.HasDrift {
		t.Errorf("alias-matched file reported drift: %v", report.Drifts)
	}
}

func TestCheckExactMatcherRejectsAlias(t *testing.T) {
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	registry := graph.NewRegistry(graph.DefaultBuilder(nil), 0)
	d := NewDetector(registry, nil, nil, ExactMatcher())

	root := writeProject(t, map[string]string{
		"pkg/data_loader.go": "package pkg\n\nfunc Load() {}\n",
		"SKILL.md":           "## Flow: Load\n\n- Entry: `data-loader.go`\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.HasDrift {
		t.Fatal("exact matching should not resolve the alias")
	}
	got := typesOf(report.Drifts)
	if got[0] != TypeMissingCode {
		t.Errorf("first drift = %s, want %s", got[0], TypeMissingCode)
	}
}

func TestCheckSignatureChange(t *testing.T) {
	d, _ := testDetector(t)
	files := map[string]string{
		"greet.go": "package app\n\nfunc Greet(name string) string {\n\treturn name\n}\n",
		"SKILL.md": "## Flow: Greeting\n\nGreets users.\n\n- Entry: `greet.go`\n- Exposes `Greet`.\n",
	}
	root := writeProject(t, files)

	report, err := d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("first Check: %v", err)
	}
	if report.HasDrift {
		t.Fatalf("baseline check reported drift: %v", report.Drifts)
	}

	changed := "package app\n\nfunc Greet(name string, loud bool) string {\n\treturn name\n}\n"
	if err := os.WriteFile(filepath.Join(root, "greet.go"), []byte(changed), 0o644); err != nil {
		t.Fatalf("rewrite greet.go: %v", err)
	}

	report, err = d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if len(report.Drifts) != 1 {
		t.Fatalf("got %d drifts, want 1: %v", len(report.Drifts), report.Drifts)
	}
	got := report.Drifts[0]
	if got.Type != TypeSignatureChange {
		t.Errorf("type = %s, want %s", got.Type, TypeSignatureChange)
	}
	if !strings.Contains(got.Description, "Greet") {
		t.Errorf("description %q should name the behavior", got.Description)
	}
}

func TestCheckFlowFilter(t *testing.T) {
	d, records := testDetector(t)
	root := writeProject(t, map[string]string{
		"main.go": "package app\n\nfunc Run() {}\n",
		"SKILL.md": "## Flow: Run\n\n- Entry: `main.go`\n\n" +
			"## Flow: Ghost\n\n- Entry: `nothing.go`\n",
	})

	report, err := d.Check(context.Background(), root, "proj", "run")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.HasDrift {
		t.Errorf("filtered check leaked other flows: %v", report.Drifts)
	}

	report, err = d.Check(context.Background(), root, "proj", "")
	if err != nil {
		t.Fatalf("full Check: %v", err)
	}
	if !report.HasDrift {
		t.Fatal("full check should report the ghost flow")
	}
	for _, r := range report.Drifts {
		if r.FlowID != "flow.ghost" {
			t.Errorf("unexpected drift for %s", r.FlowID)
		}
	}

	active, err := records.Active("proj")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != len(report.Drifts) {
		t.Errorf("active records = %d, want %d", len(active), len(report.Drifts))
	}
}
