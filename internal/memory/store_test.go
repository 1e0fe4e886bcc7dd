package memory

import (
	"context"
	"testing"
	"time"

	"github.com/HendryAvila/cortex/internal/agent"
	"github.com/HendryAvila/cortex/internal/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s, err := New(database, DefaultConfig(), agent.NewHashEmbedder(64), agent.SimilarityReranker{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveClampsImportance(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	cases := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{7, 7},
		{10, 10},
		{42, 10},
	}
	for _, tc := range cases {
		r, err := s.Save(ctx, SaveParams{Title: "t", Content: "c", Project: "p", Importance: tc.in})
		if err != nil {
			t.Fatalf("Save(importance=%d): %v", tc.in, err)
		}
		if r.Importance != tc.want {
			t.Errorf("importance %d clamped to %d, want %d", tc.in, r.Importance, tc.want)
		}
	}
}

func TestSaveRequiresTitleAndContent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveParams{Title: "", Content: "c"}); err == nil {
		t.Error("Save with empty title should fail")
	}
	if _, err := s.Save(ctx, SaveParams{Title: "t", Content: ""}); err == nil {
		t.Error("Save with empty content should fail")
	}
}

func TestSearchSemanticRespectsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := s.Save(ctx, SaveParams{
			Title:   "database connection pooling",
			Content: "notes about connection pools and timeouts",
			Project: "app",
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	matches, err := s.SearchSemantic(ctx, SearchParams{Query: "connection pool", Project: "app", Limit: 3})
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(matches) > 3 {
		t.Errorf("got %d matches, want at most 3", len(matches))
	}
	if len(matches) == 0 {
		t.Error("expected at least one match for an on-topic query")
	}
}

func TestSearchSemanticScopedToProject(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveParams{Title: "auth token refresh", Content: "refresh flow details", Project: "alpha"}); err != nil {
		t.Fatalf("Save alpha: %v", err)
	}
	if _, err := s.Save(ctx, SaveParams{Title: "auth token refresh", Content: "refresh flow details", Project: "beta"}); err != nil {
		t.Fatalf("Save beta: %v", err)
	}

	matches, err := s.SearchSemantic(ctx, SearchParams{Query: "auth token", Project: "alpha", Limit: 10})
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	for _, m := range matches {
		if m.Project != "alpha" {
			t.Errorf("match %s has project %q, want alpha", m.ID, m.Project)
		}
	}
}

func TestSearchSemanticSharedScope(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveParams{Title: "git bisect workflow", Content: "how to bisect", Project: ""}); err != nil {
		t.Fatalf("Save shared: %v", err)
	}
	if _, err := s.Save(ctx, SaveParams{Title: "git bisect workflow", Content: "how to bisect", Project: "gamma"}); err != nil {
		t.Fatalf("Save project: %v", err)
	}

	matches, err := s.SearchSemantic(ctx, SearchParams{Query: "git bisect", Project: "", Limit: 10})
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("shared scope returned %d matches, want 1", len(matches))
	}
	if matches[0].Project != "" {
		t.Errorf("shared match has project %q, want empty", matches[0].Project)
	}
}

func TestSearchTiesBreakOnImportance(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Identical text embeds identically, so similarity ties exactly.
	low, err := s.Save(ctx, SaveParams{Title: "cache invalidation", Content: "same text", Project: "p", Importance: 1})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	high, err := s.Save(ctx, SaveParams{Title: "cache invalidation", Content: "same text", Project: "p", Importance: 9})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	matches, err := s.SearchSemantic(ctx, SearchParams{Query: "cache invalidation", Project: "p", Limit: 2})
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != high.ID {
		t.Errorf("first match = %s (importance %d), want the importance-9 record %s",
			matches[0].ID, matches[0].Importance, high.ID)
	}
	if matches[1].ID != low.ID {
		t.Errorf("second match = %s, want %s", matches[1].ID, low.ID)
	}
}

func TestRecentOrdersByRecency(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, SaveParams{Title: "first", Content: "c", Project: "p"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := s.Save(ctx, SaveParams{Title: "second", Content: "c", Project: "p"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	recent, err := s.Recent("p", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d records, want 2", len(recent))
	}
	if recent[0].ID != second.ID || recent[1].ID != first.ID {
		t.Errorf("Recent order = [%s %s], want [%s %s]", recent[0].Title, recent[1].Title, second.Title, first.Title)
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saves := []SaveParams{
		{Title: "a", Content: "c", Project: "p1", Category: "decision"},
		{Title: "b", Content: "c", Project: "p1", Category: "bugfix"},
		{Title: "c", Content: "c", Project: "p2", Category: "decision"},
	}
	for _, p := range saves {
		if _, err := s.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", st.TotalRecords)
	}
	if len(st.Projects) != 2 {
		t.Errorf("Projects = %v, want 2 entries", st.Projects)
	}
	if st.ByCategory["decision"] != 2 {
		t.Errorf("ByCategory[decision] = %d, want 2", st.ByCategory["decision"])
	}
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.14159}
	out := decodeEmbedding(encodeEmbedding(in))
	if len(out) != len(in) {
		t.Fatalf("decoded length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
	if decodeEmbedding(nil) != nil {
		t.Error("decodeEmbedding(nil) should be nil")
	}
	if decodeEmbedding([]byte{1, 2, 3}) != nil {
		t.Error("decodeEmbedding of truncated blob should be nil")
	}
}
