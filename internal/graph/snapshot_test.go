package graph

import (
	"testing"

	"github.com/HendryAvila/cortex/internal/db"
)

func testSnapshots(t *testing.T) *SnapshotStore {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s, err := NewSnapshotStore(database)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	return s
}

func graphWithSignatures(project string, sigs map[string]string) *Graph {
	g := NewGraph(project)
	for id, sig := range sigs {
		g.AddEntity(&Entity{
			ID:         id,
			Kind:       KindFunction,
			Name:       id,
			Attributes: map[string]string{"signature": sig},
		})
	}
	return g
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testSnapshots(t)

	g := graphWithSignatures("proj", map[string]string{
		"function.a.go:Run":  "func Run() error",
		"function.a.go:Stop": "func Stop()",
	})
	if err := s.Record(g); err != nil {
		t.Fatalf("Record: %v", err)
	}

	sigs, err := s.Signatures("proj")
	if err != nil {
		t.Fatalf("Signatures: %v", err)
	}
	if sigs["function.a.go:Run"] != "func Run() error" {
		t.Errorf("Run signature = %q", sigs["function.a.go:Run"])
	}
	if len(sigs) != 2 {
		t.Errorf("got %d signatures, want 2", len(sigs))
	}
}

func TestSnapshotRecordReplaces(t *testing.T) {
	s := testSnapshots(t)

	first := graphWithSignatures("proj", map[string]string{
		"function.a.go:Run": "func Run() error",
		"function.a.go:Old": "func Old()",
	})
	if err := s.Record(first); err != nil {
		t.Fatalf("first Record: %v", err)
	}

	second := graphWithSignatures("proj", map[string]string{
		"function.a.go:Run": "func Run(ctx context.Context) error",
	})
	if err := s.Record(second); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	sigs, err := s.Signatures("proj")
	if err != nil {
		t.Fatalf("Signatures: %v", err)
	}
	if len(sigs) != 1 {
		t.Errorf("got %d signatures after replace, want 1", len(sigs))
	}
	if sigs["function.a.go:Run"] != "func Run(ctx context.Context) error" {
		t.Errorf("Run signature = %q, want the updated one", sigs["function.a.go:Run"])
	}
}

func TestSnapshotProjectsIsolated(t *testing.T) {
	s := testSnapshots(t)

	if err := s.Record(graphWithSignatures("alpha", map[string]string{"f": "func f()"})); err != nil {
		t.Fatalf("Record alpha: %v", err)
	}
	if err := s.Record(graphWithSignatures("beta", map[string]string{"g": "func g()"})); err != nil {
		t.Fatalf("Record beta: %v", err)
	}

	sigs, err := s.Signatures("alpha")
	if err != nil {
		t.Fatalf("Signatures: %v", err)
	}
	if len(sigs) != 1 || sigs["f"] == "" {
		t.Errorf("alpha signatures = %v, want only f", sigs)
	}
}
