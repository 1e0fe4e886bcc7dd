package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/HendryAvila/cortex/internal/fault"
)

// writeTree materializes a map of relative path -> contents under dir.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

const goSample = `package svc

import "fmt"

func Handle() {
	fmt.Println("x")
	parse()
}

func parse() {
}
`

func TestBuildExtractsGoStructure(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"svc/handler.go": goSample})

	g, err := DefaultBuilder(nil).Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantIDs := []string{
		FileID("svc/handler.go"),
		EntityID(KindModule, "svc/handler.go", "svc"),
		EntityID(KindFunction, "svc/handler.go", "Handle"),
		EntityID(KindFunction, "svc/handler.go", "parse"),
	}
	for _, id := range wantIDs {
		if g.Entity(id) == nil {
			t.Errorf("missing entity %s", id)
		}
	}

	// Handle calls parse within the same file.
	handleID := EntityID(KindFunction, "svc/handler.go", "Handle")
	parseID := EntityID(KindFunction, "svc/handler.go", "parse")
	found := false
	for _, r := range g.Outgoing(handleID) {
		if r.Kind == RelCalls && r.TargetID == parseID {
			found = true
		}
	}
	if !found {
		t.Errorf("missing calls edge %s -> %s", handleID, parseID)
	}

	sig := g.Entity(handleID).Signature()
	if sig != "func Handle()" {
		t.Errorf("signature = %q, want %q", sig, "func Handle()")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/main.go":  goSample,
		"b/util.py":  "def helper():\n    return 1\n",
		"c/index.ts": "export function render() {}\n",
	})

	b := DefaultBuilder(nil)
	first, err := b.Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	firstIDs := entityIDs(first)
	secondIDs := entityIDs(second)
	if !reflect.DeepEqual(firstIDs, secondIDs) {
		t.Errorf("entity sets differ across identical builds:\n%v\n%v", firstIDs, secondIDs)
	}
	if first.Stats.Relations != second.Stats.Relations {
		t.Errorf("relation counts differ: %d vs %d", first.Stats.Relations, second.Stats.Relations)
	}
}

func entityIDs(g *Graph) []string {
	var ids []string
	for _, e := range g.Entities() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestBuildAgainstReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"svc/handler.go": goSample,
		"svc/util.go":    "package svc\n\nfunc Helper() {\n}\n",
	})

	b := DefaultBuilder(nil)
	first, err := b.Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}

	writeTree(t, dir, map[string]string{
		"svc/util.go": "package svc\n\nfunc Helper(n int) {\n}\n",
	})

	second, err := b.BuildAgainst(context.Background(), "proj", dir, first)
	if err != nil {
		t.Fatalf("BuildAgainst: %v", err)
	}

	if second.Stats.FilesReused != 1 {
		t.Errorf("FilesReused = %d, want 1", second.Stats.FilesReused)
	}
	if second.Stats.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1 (only the changed file)", second.Stats.FilesProcessed)
	}

	// The unchanged file carries its prior extraction over unparsed.
	handleID := EntityID(KindFunction, "svc/handler.go", "Handle")
	if second.Entity(handleID) != first.Entity(handleID) {
		t.Error("unchanged file should reuse the prior extraction")
	}

	// The changed file was re-extracted and shows its new shape.
	helperID := EntityID(KindFunction, "svc/util.go", "Helper")
	if got := second.Entity(helperID).Signature(); got != "func Helper(n int)" {
		t.Errorf("changed file signature = %q, want %q", got, "func Helper(n int)")
	}
}

func TestRebuildCarriesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": goSample})

	r := NewRegistry(DefaultBuilder(nil), time.Minute)
	first, err := r.Rebuild(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("first Rebuild: %v", err)
	}
	second, err := r.Rebuild(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	if second.Stats.FilesReused != 1 || second.Stats.FilesProcessed != 0 {
		t.Errorf("reused/processed = %d/%d, want 1/0 on a no-op rebuild",
			second.Stats.FilesReused, second.Stats.FilesProcessed)
	}
	if !reflect.DeepEqual(entityIDs(first), entityIDs(second)) {
		t.Error("a no-op rebuild must keep the entity set")
	}
}

func TestBuildSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":                 goSample,
		"node_modules/dep/x.js":   "function hidden() {}\n",
		"vendor/lib/y.go":         goSample,
		"__pycache__/cached.py":   "def nope():\n    pass\n",
	})

	g, err := DefaultBuilder(nil).Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, path := range g.FilePaths() {
		if path != "main.go" {
			t.Errorf("unexpected file in graph: %s", path)
		}
	}
}

func TestBuildExtraIgnoreDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":          goSample,
		"generated/gen.go": goSample,
	})

	g, err := DefaultBuilder([]string{"generated"}).Build(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.FilePaths()) != 1 {
		t.Errorf("files = %v, want only main.go", g.FilePaths())
	}
}

func TestBuildUnreadableRootIsBuildError(t *testing.T) {
	_, err := DefaultBuilder(nil).Build(context.Background(), "proj", "/does/not/exist")
	if !errors.Is(err, fault.ErrBuild) {
		t.Errorf("err = %v, want ErrBuild", err)
	}
}

func TestBuildExpiredContextIsTimeout(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": goSample})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DefaultBuilder(nil).Build(ctx, "proj", dir)
	if !errors.Is(err, fault.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestRegistryPublishesAtomically(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": goSample})

	r := NewRegistry(DefaultBuilder(nil), time.Minute)
	if g := r.Current("proj"); g != nil {
		t.Fatal("Current before any build should be nil")
	}

	g, err := r.Rebuild(context.Background(), "proj", dir)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if r.Current("proj") != g {
		t.Error("Current should return the freshly published graph")
	}

	// A failed rebuild leaves the published graph untouched.
	if _, err := r.Rebuild(context.Background(), "proj", "/does/not/exist"); err == nil {
		t.Fatal("Rebuild of a missing root should fail")
	}
	if r.Current("proj") != g {
		t.Error("failed rebuild must not replace the published graph")
	}
}

func TestRegistryFreshUsesRecentGraph(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": goSample})

	r := NewRegistry(DefaultBuilder(nil), time.Minute)
	first, err := r.Fresh(context.Background(), "proj", dir, time.Hour)
	if err != nil {
		t.Fatalf("first Fresh: %v", err)
	}
	second, err := r.Fresh(context.Background(), "proj", dir, time.Hour)
	if err != nil {
		t.Fatalf("second Fresh: %v", err)
	}
	if first != second {
		t.Error("Fresh rebuilt a graph inside its staleness window")
	}

	stale, err := r.Fresh(context.Background(), "proj", dir, time.Nanosecond)
	if err != nil {
		t.Fatalf("stale Fresh: %v", err)
	}
	if stale == first {
		t.Error("Fresh should rebuild once the graph is older than maxAge")
	}
}

func TestReachableFollowsCycles(t *testing.T) {
	g := NewGraph("proj")
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddEntity(&Entity{ID: id, Kind: KindFunction, Name: id})
	}
	// a -> b -> c -> a is a cycle; d is disconnected.
	g.AddRelation(Relation{SourceID: "a", TargetID: "b", Kind: RelCalls})
	g.AddRelation(Relation{SourceID: "b", TargetID: "c", Kind: RelCalls})
	g.AddRelation(Relation{SourceID: "c", TargetID: "a", Kind: RelCalls})

	reachable := g.Reachable([]string{"a"})
	for _, id := range []string{"a", "b", "c"} {
		if !reachable[id] {
			t.Errorf("%s should be reachable from a", id)
		}
	}
	if reachable["d"] {
		t.Error("d should not be reachable")
	}
}

func TestAddRelationDeduplicates(t *testing.T) {
	g := NewGraph("proj")
	g.AddEntity(&Entity{ID: "x", Kind: KindFunction, Name: "x"})
	g.AddEntity(&Entity{ID: "y", Kind: KindFunction, Name: "y"})

	r := Relation{SourceID: "x", TargetID: "y", Kind: RelCalls}
	g.AddRelation(r)
	g.AddRelation(r)

	if n := len(g.Relations()); n != 1 {
		t.Errorf("relations = %d, want 1 after duplicate add", n)
	}
}
