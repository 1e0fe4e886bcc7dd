package graph

import (
	"database/sql"
	"fmt"
)

// SnapshotStore persists per-project entity signatures from the last drift
// check. Only signatures are durable; full graphs are rebuildable from
// source and never stored.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates the store and runs its migration.
func NewSnapshotStore(db *sql.DB) (*SnapshotStore, error) {
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("graph: snapshot migration: %w", err)
	}
	return s, nil
}

func (s *SnapshotStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS graph_signatures (
			project     TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			signature   TEXT NOT NULL,
			recorded_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (project, entity_id)
		);
	`)
	return err
}

// Signatures returns the recorded signature per entity id for a project.
// An empty map (not an error) means no snapshot has been taken yet.
func (s *SnapshotStore) Signatures(project string) (map[string]string, error) {
	rows, err := s.db.Query(
		`SELECT entity_id, signature FROM graph_signatures WHERE project = ?`, project,
	)
	if err != nil {
		return nil, fmt.Errorf("graph: load signatures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, sig string
		if err := rows.Scan(&id, &sig); err != nil {
			return nil, err
		}
		out[id] = sig
	}
	return out, rows.Err()
}

// Record replaces the project's snapshot with the current graph's
// signatures in one transaction, so a concurrent reader sees either the
// old snapshot or the new one, never a mix.
func (s *SnapshotStore) Record(g *Graph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("graph: record snapshot: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM graph_signatures WHERE project = ?`, g.Project); err != nil {
		return fmt.Errorf("graph: record snapshot: clear: %w", err)
	}
	for _, e := range g.Entities() {
		sig := e.Signature()
		if sig == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO graph_signatures (project, entity_id, signature) VALUES (?, ?, ?)`,
			g.Project, e.ID, sig,
		); err != nil {
			return fmt.Errorf("graph: record snapshot: insert %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
