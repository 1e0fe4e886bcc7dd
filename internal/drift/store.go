package drift

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordStore persists drift records. Records are immutable: a new check
// supersedes the prior records for the checked flows by stamping
// superseded_at, never by rewriting them.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates the store and runs its migration.
func NewRecordStore(db *sql.DB) (*RecordStore, error) {
	s := &RecordStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate drift records: %w", err)
	}
	return s, nil
}

func (s *RecordStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS drift_records (
	id            TEXT PRIMARY KEY,
	project       TEXT NOT NULL,
	flow_id       TEXT NOT NULL,
	type          TEXT NOT NULL,
	description   TEXT NOT NULL,
	detected_at   TIMESTAMP NOT NULL,
	superseded_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_drift_project_flow ON drift_records(project, flow_id);
`
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport marks the prior records of every checked flow as superseded and
// inserts the new records, all in one transaction. Flows checked clean still
// supersede their old records.
func (s *RecordStore) SaveReport(project string, checkedFlows []string, records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin drift save: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, flowID := range checkedFlows {
		_, err := tx.Exec(
			`UPDATE drift_records SET superseded_at = ? WHERE project = ? AND flow_id = ? AND superseded_at IS NULL`,
			now, project, flowID,
		)
		if err != nil {
			return fmt.Errorf("supersede drift records for %s: %w", flowID, err)
		}
	}

	for _, r := range records {
		_, err := tx.Exec(
			`INSERT INTO drift_records (id, project, flow_id, type, description, detected_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, project, r.FlowID, string(r.Type), r.Description, r.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert drift record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Active returns the non-superseded records for a project, most severe first
// within each flow, flows in detection order.
func (s *RecordStore) Active(project string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, flow_id, type, description, detected_at
		 FROM drift_records
		 WHERE project = ? AND superseded_at IS NULL
		 ORDER BY detected_at, flow_id, rowid`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("query drift records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var typ string
		if err := rows.Scan(&r.ID, &r.FlowID, &typ, &r.Description, &r.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan drift record: %w", err)
		}
		r.Type = Type(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

// History returns every record for a flow, superseded included, newest first.
func (s *RecordStore) History(project, flowID string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, flow_id, type, description, detected_at
		 FROM drift_records
		 WHERE project = ? AND flow_id = ?
		 ORDER BY detected_at DESC, rowid DESC`,
		project, flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query drift history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var typ string
		if err := rows.Scan(&r.ID, &r.FlowID, &typ, &r.Description, &r.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan drift record: %w", err)
		}
		r.Type = Type(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}
