// Package memory implements the durable memory store for agent knowledge.
//
// Records are immutable rows in SQLite; their embeddings live in per-project
// chromem collections so semantic search never crosses project scope. The
// shared scope (project "") gets its own collection like any other.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/HendryAvila/cortex/internal/agent"
	"github.com/HendryAvila/cortex/internal/fault"
)

// Record is one immutable memory entry.
type Record struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Project    string    `json:"project,omitempty"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Match is a search hit with its cosine similarity.
type Match struct {
	Record
	Similarity float32 `json:"similarity"`
}

// SaveParams holds input for Save.
type SaveParams struct {
	Category   string `json:"category"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Project    string `json:"project,omitempty"`
	Importance int    `json:"importance"`
}

// SearchParams holds input for SearchSemantic.
type SearchParams struct {
	Query   string `json:"query"`
	Project string `json:"project,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Rerank  bool   `json:"rerank,omitempty"`
}

// Stats holds aggregate memory statistics.
type Stats struct {
	TotalRecords int            `json:"total_records"`
	Projects     []string       `json:"projects"`
	ByCategory   map[string]int `json:"by_category"`
}

// Config tunes the store.
type Config struct {
	EmbedTimeout time.Duration
	MaxResults   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{EmbedTimeout: 15 * time.Second, MaxResults: 20}
}

// Store persists memory records and answers semantic queries.
type Store struct {
	db       *sql.DB
	cfg      Config
	embedder agent.Embedder
	reranker agent.Reranker

	vectors     *chromem.DB
	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// New creates a Store over an open database and runs its migration.
// A nil reranker disables the rerank pass.
func New(db *sql.DB, cfg Config, embedder agent.Embedder, reranker agent.Reranker) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultConfig().EmbedTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	s := &Store{
		db:          db,
		cfg:         cfg,
		embedder:    embedder,
		reranker:    reranker,
		vectors:     chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate memory store: %w", err)
	}
	if err := s.reindex(); err != nil {
		return nil, fmt.Errorf("reindex memory vectors: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	project    TEXT NOT NULL DEFAULT '',
	importance INTEGER NOT NULL DEFAULT 0,
	embedding  BLOB,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project, created_at DESC);
`
	_, err := s.db.Exec(schema)
	return err
}

// reindex rebuilds the in-memory vector collections from the durable rows.
// SQLite is the source of truth; chromem is derived state.
func (s *Store) reindex() error {
	rows, err := s.db.Query(`SELECT id, title, content, project, embedding FROM memories`)
	if err != nil {
		return err
	}
	defer rows.Close()

	ctx := context.Background()
	for rows.Next() {
		var (
			id, title, content, project string
			blob                        []byte
		)
		if err := rows.Scan(&id, &title, &content, &project, &blob); err != nil {
			return err
		}
		emb := decodeEmbedding(blob)
		if len(emb) == 0 {
			continue
		}
		col, err := s.collection(project)
		if err != nil {
			return err
		}
		if err := col.AddDocument(ctx, chromem.Document{
			ID:        id,
			Content:   title + "\n" + content,
			Embedding: emb,
		}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// collection returns the project's vector collection, creating it on first
// use. Project "" maps to the shared scope.
func (s *Store) collection(project string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := "shared"
	if project != "" {
		name = "project_" + project
	}
	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.vectors.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Save embeds and persists a new record. Importance is clamped to [0,10];
// records are never edited in place, corrections are new records.
func (s *Store) Save(ctx context.Context, p SaveParams) (*Record, error) {
	if p.Title == "" || p.Content == "" {
		return nil, fmt.Errorf("memory: title and content are required")
	}
	if p.Category == "" {
		p.Category = "note"
	}
	if p.Importance < 0 {
		p.Importance = 0
	}
	if p.Importance > 10 {
		p.Importance = 10
	}

	emb, err := s.embed(ctx, p.Title+"\n"+p.Content)
	if err != nil {
		return nil, err
	}

	r := Record{
		ID:         uuid.NewString(),
		Category:   p.Category,
		Title:      p.Title,
		Content:    p.Content,
		Project:    p.Project,
		Importance: p.Importance,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = s.db.Exec(
		`INSERT INTO memories (id, category, title, content, project, importance, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Category, r.Title, r.Content, r.Project, r.Importance, encodeEmbedding(emb), r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	col, err := s.collection(r.Project)
	if err != nil {
		return nil, err
	}
	if err := col.AddDocument(ctx, chromem.Document{
		ID:        r.ID,
		Content:   r.Title + "\n" + r.Content,
		Embedding: emb,
	}); err != nil {
		return nil, fmt.Errorf("index memory vector: %w", err)
	}
	return &r, nil
}

// embed runs the embedder under its own timeout so a slow provider cannot
// stall the caller past cfg.EmbedTimeout.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fault.Timeout("embed", err)
		}
		return nil, fmt.Errorf("embed: %w", err)
	}
	return emb, nil
}

// SearchSemantic returns the records most similar to the query, scoped to
// the params' project collection. The result never exceeds the limit and
// never contains records from another project.
func (s *Store) SearchSemantic(ctx context.Context, p SearchParams) ([]Match, error) {
	if p.Query == "" {
		return nil, fmt.Errorf("memory: query is required")
	}
	limit := p.Limit
	if limit <= 0 || limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}

	emb, err := s.embed(ctx, p.Query)
	if err != nil {
		return nil, err
	}

	col, err := s.collection(p.Project)
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	k := limit * 3
	if k < limit {
		k = limit
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, emb, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	matches, err := s.hydrate(p.Project, results)
	if err != nil {
		return nil, err
	}

	// Cosine ties break on importance then recency.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Importance != matches[j].Importance {
			return matches[i].Importance > matches[j].Importance
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if p.Rerank && s.reranker != nil {
		matches, err = s.rerank(ctx, p.Query, matches, limit)
		if err != nil {
			return nil, err
		}
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// hydrate resolves vector hits back to durable rows and enforces scope.
func (s *Store) hydrate(project string, results []chromem.Result) ([]Match, error) {
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		r, err := s.get(res.ID)
		if err != nil {
			if errors.Is(err, fault.ErrNotFound) {
				continue // row deleted after indexing
			}
			return nil, err
		}
		if r.Project != project {
			return nil, fmt.Errorf("%w: record %s belongs to project %q, queried %q",
				fault.ErrScopeViolation, r.ID, r.Project, project)
		}
		matches = append(matches, Match{Record: *r, Similarity: res.Similarity})
	}
	return matches, nil
}

func (s *Store) rerank(ctx context.Context, query string, matches []Match, limit int) ([]Match, error) {
	cands := make([]agent.Candidate, len(matches))
	byID := make(map[string]Match, len(matches))
	for i, m := range matches {
		cands[i] = agent.Candidate{
			ID:         m.ID,
			Title:      m.Title,
			Content:    m.Content,
			Similarity: m.Similarity,
			Importance: m.Importance,
		}
		byID[m.ID] = m
	}
	ranked, err := s.reranker.Rerank(ctx, query, cands, limit)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	out := make([]Match, 0, len(ranked))
	for _, c := range ranked {
		if m, ok := byID[c.ID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// get loads one record by id.
func (s *Store) get(id string) (*Record, error) {
	var r Record
	err := s.db.QueryRow(
		`SELECT id, category, title, content, project, importance, created_at FROM memories WHERE id = ?`, id,
	).Scan(&r.ID, &r.Category, &r.Title, &r.Content, &r.Project, &r.Importance, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("memory", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load memory %s: %w", id, err)
	}
	return &r, nil
}

// Recent returns the newest records for a project.
func (s *Store) Recent(project string, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}
	rows, err := s.db.Query(
		`SELECT id, category, title, content, project, importance, created_at
		 FROM memories WHERE project = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		project, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent memories: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Category, &r.Title, &r.Content, &r.Project, &r.Importance, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats returns aggregate counts across all projects.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByCategory: make(map[string]int)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&st.TotalRecords); err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}

	rows, err := s.db.Query(`SELECT DISTINCT project FROM memories WHERE project != '' ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		st.Projects = append(st.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := s.db.Query(`SELECT category, COUNT(*) FROM memories GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var cat string
		var n int
		if err := catRows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		st.ByCategory[cat] = n
	}
	return st, catRows.Err()
}
