package task

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/cortex/internal/fault"
)

// Config tunes the store.
type Config struct {
	// MaxRetries is how many rejections a subtask survives before it
	// fails and blocks its parent task.
	MaxRetries int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxRetries: 3}
}

// Store persists tasks, subtasks, and checkpoints in SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store over an open database and runs its migration.
func New(db *sql.DB, cfg Config) (*Store, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate task store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	project     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	plan        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS subtasks (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	ordinal    INTEGER NOT NULL,
	title      TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	agent      TEXT NOT NULL DEFAULT '',
	annotation TEXT NOT NULL DEFAULT '',
	retries    INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id, ordinal);

CREATE TABLE IF NOT EXISTS checkpoints (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	agent      TEXT NOT NULL,
	state      TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_task_agent ON checkpoints(task_id, agent, created_at DESC);
`
	_, err := s.db.Exec(schema)
	return err
}

// --- Tasks ---

// CreateTask inserts a new task in the created state.
func (s *Store) CreateTask(project, title, description string) (*Task, error) {
	if project == "" || title == "" {
		return nil, fmt.Errorf("task: project and title are required")
	}
	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.NewString(),
		Project:     project,
		Title:       title,
		Description: description,
		Status:      TaskCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, project, title, description, plan, status, created_at, updated_at) VALUES (?, ?, ?, ?, '', ?, ?, ?)`,
		t.ID, t.Project, t.Title, t.Description, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// GetTask loads a task by id.
func (s *Store) GetTask(id string) (*Task, error) {
	var (
		t      Task
		status string
	)
	err := s.db.QueryRow(
		`SELECT id, project, title, description, plan, status, created_at, updated_at FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Project, &t.Title, &t.Description, &t.Plan, &status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}
	t.Status = TaskStatus(status)
	return &t, nil
}

// ListTasks returns a project's tasks, newest first.
func (s *Store) ListTasks(project string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, project, title, description, plan, status, created_at, updated_at
		 FROM tasks WHERE project = ? ORDER BY created_at DESC`, project,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var (
			t      Task
			status string
		)
		if err := rows.Scan(&t.ID, &t.Project, &t.Title, &t.Description, &t.Plan, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Status = TaskStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// PlanTask attaches a plan and moves created -> planned.
func (s *Store) PlanTask(id, plan string) (*Task, error) {
	t, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if err := checkTaskMove(t.Status, TaskPlanned); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE tasks SET plan = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		plan, string(TaskPlanned), now, id, string(t.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("plan task %s: %w", id, err)
	}
	t.Plan = plan
	t.Status = TaskPlanned
	t.UpdatedAt = now
	return t, nil
}

// setTaskStatus validates and applies a task transition.
func (s *Store) setTaskStatus(id string, to TaskStatus) error {
	t, err := s.GetTask(id)
	if err != nil {
		return err
	}
	if t.Status == to {
		return nil
	}
	if err := checkTaskMove(t.Status, to); err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// FinishTask completes a task in a single transaction: every subtask must be
// verified. Finishing an already completed task is a no-op; any other
// unfinished state is an invalid transition.
func (s *Store) FinishTask(id string) (*Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin finish: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}
	if TaskStatus(status) == TaskCompleted {
		// Idempotent: release the tx before reading outside it.
		tx.Rollback()
		return s.GetTask(id)
	}
	if err := checkTaskMove(TaskStatus(status), TaskCompleted); err != nil {
		return nil, err
	}

	var total, verified int
	err = tx.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(status = 'verified'), 0) FROM subtasks WHERE task_id = ?`, id,
	).Scan(&total, &verified)
	if err != nil {
		return nil, fmt.Errorf("count subtasks: %w", err)
	}
	if total == 0 || verified < total {
		return nil, fmt.Errorf("%d of %d subtasks verified: %w",
			verified, total, fault.ErrInvalidTransition)
	}

	_, err = tx.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(TaskCompleted), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finish: %w", err)
	}
	return s.GetTask(id)
}

// --- Subtasks ---

// CreateSubtask appends an ordered subtask to a planned or running task.
func (s *Store) CreateSubtask(taskID, title, detail string) (*Subtask, error) {
	if title == "" {
		return nil, fmt.Errorf("subtask: title is required")
	}
	t, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if t.Status == TaskCompleted || t.Status == TaskFailed {
		return nil, fault.InvalidTransition("task", string(t.Status), "accepting subtasks")
	}

	var next int
	err = s.db.QueryRow(
		`SELECT COALESCE(MAX(ordinal), 0) + 1 FROM subtasks WHERE task_id = ?`, taskID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next ordinal: %w", err)
	}

	now := time.Now().UTC()
	st := &Subtask{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Ordinal:   next,
		Title:     title,
		Detail:    detail,
		Status:    SubtaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.Exec(
		`INSERT INTO subtasks (id, task_id, ordinal, title, detail, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.TaskID, st.Ordinal, st.Title, st.Detail, string(st.Status), st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subtask: %w", err)
	}
	return st, nil
}

// GetSubtask loads a subtask by id.
func (s *Store) GetSubtask(id string) (*Subtask, error) {
	var (
		st     Subtask
		status string
	)
	err := s.db.QueryRow(
		`SELECT id, task_id, ordinal, title, detail, status, agent, annotation, retries, created_at, updated_at
		 FROM subtasks WHERE id = ?`, id,
	).Scan(&st.ID, &st.TaskID, &st.Ordinal, &st.Title, &st.Detail, &status, &st.Agent, &st.Annotation, &st.Retries, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("subtask", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load subtask %s: %w", id, err)
	}
	st.Status = SubtaskStatus(status)
	return &st, nil
}

// ListSubtasks returns a task's subtasks in creation order.
func (s *Store) ListSubtasks(taskID string) ([]Subtask, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, task_id, ordinal, title, detail, status, agent, annotation, retries, created_at, updated_at
		 FROM subtasks WHERE task_id = ? ORDER BY ordinal`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	var out []Subtask
	for rows.Next() {
		var (
			st     Subtask
			status string
		)
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Ordinal, &st.Title, &st.Detail, &status, &st.Agent, &st.Annotation, &st.Retries, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		st.Status = SubtaskStatus(status)
		out = append(out, st)
	}
	return out, rows.Err()
}

// AssignSubtask claims a pending subtask for an agent. The claim is a
// compare-and-set on status, so two agents racing for the same subtask
// resolve to exactly one winner; the loser gets InvalidTransition.
func (s *Store) AssignSubtask(id, agent string) (*Subtask, error) {
	if agent == "" {
		return nil, fmt.Errorf("subtask: agent is required")
	}
	st, err := s.GetSubtask(id)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`UPDATE subtasks SET status = ?, agent = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(SubtaskAssigned), agent, time.Now().UTC(), id, string(SubtaskPending),
	)
	if err != nil {
		return nil, fmt.Errorf("assign subtask %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("assign subtask %s: %w", id, err)
	}
	if n == 0 {
		// Lost the claim race or the subtask already left pending. Re-read
		// so the error names the status that actually blocked the claim,
		// not the possibly stale one observed before the update.
		cur, err := s.GetSubtask(id)
		if err != nil {
			return nil, err
		}
		return nil, fault.InvalidTransition("subtask", string(cur.Status), string(SubtaskAssigned))
	}

	// First assignment moves the parent task into progress.
	if t, err := s.GetTask(st.TaskID); err == nil && t.Status == TaskPlanned {
		if err := s.setTaskStatus(st.TaskID, TaskInProgress); err != nil {
			return nil, err
		}
	}
	return s.GetSubtask(id)
}

// StartSubtask moves assigned -> in_progress.
func (s *Store) StartSubtask(id string) (*Subtask, error) {
	return s.moveSubtask(id, SubtaskInProgress, func(st *Subtask) error {
		return checkSubtaskMove(st.Status, SubtaskInProgress)
	})
}

// VerifySubtask moves in_progress -> verified.
func (s *Store) VerifySubtask(id string) (*Subtask, error) {
	return s.moveSubtask(id, SubtaskVerified, func(st *Subtask) error {
		return checkSubtaskMove(st.Status, SubtaskVerified)
	})
}

// moveSubtask validates and applies a simple subtask transition.
func (s *Store) moveSubtask(id string, to SubtaskStatus, check func(*Subtask) error) (*Subtask, error) {
	st, err := s.GetSubtask(id)
	if err != nil {
		return nil, err
	}
	if err := check(st); err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE subtasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update subtask %s: %w", id, err)
	}
	return s.GetSubtask(id)
}

// RejectSubtask records why the work was rejected and sends the subtask
// back for another attempt. When retries run out, the subtask fails and
// the parent task is blocked.
func (s *Store) RejectSubtask(id, annotation string) (*Subtask, error) {
	st, err := s.GetSubtask(id)
	if err != nil {
		return nil, err
	}
	if err := checkSubtaskMove(st.Status, SubtaskRejected); err != nil {
		return nil, err
	}

	retries := st.Retries + 1
	now := time.Now().UTC()

	if retries > s.cfg.MaxRetries {
		_, err = s.db.Exec(
			`UPDATE subtasks SET status = ?, annotation = ?, retries = ?, updated_at = ? WHERE id = ?`,
			string(SubtaskFailed), annotation, retries, now, id,
		)
		if err != nil {
			return nil, fmt.Errorf("fail subtask %s: %w", id, err)
		}
		if err := s.setTaskStatus(st.TaskID, TaskBlocked); err != nil {
			return nil, err
		}
		return s.GetSubtask(id)
	}

	// Back to in_progress for the retry; the same agent keeps the claim.
	_, err = s.db.Exec(
		`UPDATE subtasks SET status = ?, annotation = ?, retries = ?, updated_at = ? WHERE id = ?`,
		string(SubtaskInProgress), annotation, retries, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reject subtask %s: %w", id, err)
	}
	return s.GetSubtask(id)
}

// Progress derives subtask completion for a task. It never writes.
func (s *Store) Progress(taskID string) (*Progress, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	var total, verified int
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(status = 'verified'), 0) FROM subtasks WHERE task_id = ?`, taskID,
	).Scan(&total, &verified)
	if err != nil {
		return nil, fmt.Errorf("count subtasks: %w", err)
	}
	p := &Progress{TaskID: taskID, Completed: verified, Total: total}
	if total > 0 {
		p.Percent = 100 * float64(verified) / float64(total)
		p.IsComplete = verified == total
	}
	return p, nil
}

// --- Checkpoints ---

// SaveCheckpoint appends a checkpoint for (task, agent). The row becomes
// the latest; history keeps every prior row untouched.
func (s *Store) SaveCheckpoint(taskID, agent string, state json.RawMessage, summary string) (*Checkpoint, error) {
	if agent == "" {
		return nil, fmt.Errorf("checkpoint: agent is required")
	}
	if len(state) == 0 || !json.Valid(state) {
		return nil, fmt.Errorf("checkpoint: state must be valid JSON")
	}
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	cp := &Checkpoint{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Agent:     agent,
		State:     state,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO checkpoints (id, task_id, agent, state, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.TaskID, cp.Agent, string(cp.State), cp.Summary, cp.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkpoint: %w", err)
	}
	return cp, nil
}

// LoadCheckpoint returns the latest checkpoint for (task, agent), or
// (nil, nil) when the agent has never checkpointed this task. A missing
// task is still NotFound.
func (s *Store) LoadCheckpoint(taskID, agent string) (*Checkpoint, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	var (
		cp    Checkpoint
		state string
	)
	err := s.db.QueryRow(
		`SELECT id, task_id, agent, state, summary, created_at
		 FROM checkpoints WHERE task_id = ? AND agent = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		taskID, agent,
	).Scan(&cp.ID, &cp.TaskID, &cp.Agent, &state, &cp.Summary, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	cp.State = json.RawMessage(state)
	return &cp, nil
}

// CheckpointHistory lists every checkpoint for (task, agent), newest first.
func (s *Store) CheckpointHistory(taskID, agent string) ([]Checkpoint, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, task_id, agent, state, summary, created_at
		 FROM checkpoints WHERE task_id = ? AND agent = ?
		 ORDER BY created_at DESC, rowid DESC`,
		taskID, agent,
	)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var (
			cp    Checkpoint
			state string
		)
		if err := rows.Scan(&cp.ID, &cp.TaskID, &cp.Agent, &state, &cp.Summary, &cp.CreatedAt); err != nil {
			return nil, err
		}
		cp.State = json.RawMessage(state)
		out = append(out, cp)
	}
	return out, rows.Err()
}
