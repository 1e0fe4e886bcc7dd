// Package task manages the task lifecycle: tasks, their ordered subtasks,
// and per-agent checkpoints.
//
// Both state machines are explicit transition tables. Every persisted move
// validates against the table first; an illegal move surfaces as
// fault.InvalidTransition, never as a silent coercion. Progress is derived
// from subtask rows on read and is never stored.
package task

import (
	"encoding/json"
	"time"

	"github.com/HendryAvila/cortex/internal/fault"
)

// --- Task status enum ---

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskCreated    TaskStatus = "created"
	TaskPlanned    TaskStatus = "planned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
	TaskFailed     TaskStatus = "failed"
)

// taskTransitions is the set of legal task moves.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskCreated:    {TaskPlanned},
	TaskPlanned:    {TaskInProgress},
	TaskInProgress: {TaskCompleted, TaskBlocked, TaskFailed},
	TaskBlocked:    {TaskInProgress, TaskFailed},
}

// --- Subtask status enum ---

// SubtaskStatus is the lifecycle state of a subtask.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskAssigned   SubtaskStatus = "assigned"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskVerified   SubtaskStatus = "verified"
	SubtaskRejected   SubtaskStatus = "rejected"
	SubtaskFailed     SubtaskStatus = "failed"
)

// subtaskTransitions is the set of legal subtask moves. A rejection sends
// the subtask back to in_progress for its retry, unless retries are spent.
var subtaskTransitions = map[SubtaskStatus][]SubtaskStatus{
	SubtaskPending:    {SubtaskAssigned},
	SubtaskAssigned:   {SubtaskInProgress},
	SubtaskInProgress: {SubtaskVerified, SubtaskRejected},
	SubtaskRejected:   {SubtaskInProgress, SubtaskFailed},
}

// canMoveTask reports whether from -> to is a legal task transition.
func canMoveTask(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// canMoveSubtask reports whether from -> to is a legal subtask transition.
func canMoveSubtask(from, to SubtaskStatus) bool {
	for _, next := range subtaskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTaskMove returns fault.InvalidTransition for an illegal task move.
func checkTaskMove(from, to TaskStatus) error {
	if !canMoveTask(from, to) {
		return fault.InvalidTransition("task", string(from), string(to))
	}
	return nil
}

// checkSubtaskMove returns fault.InvalidTransition for an illegal subtask move.
func checkSubtaskMove(from, to SubtaskStatus) error {
	if !canMoveSubtask(from, to) {
		return fault.InvalidTransition("subtask", string(from), string(to))
	}
	return nil
}

// --- Records ---

// Task is one unit of planned work.
type Task struct {
	ID          string     `json:"id"`
	Project     string     `json:"project"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Plan        string     `json:"plan,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Subtask is one ordered step of a task, assignable to exactly one agent.
type Subtask struct {
	ID         string        `json:"id"`
	TaskID     string        `json:"task_id"`
	Ordinal    int           `json:"ordinal"`
	Title      string        `json:"title"`
	Detail     string        `json:"detail,omitempty"`
	Status     SubtaskStatus `json:"status"`
	Agent      string        `json:"agent,omitempty"`
	Annotation string        `json:"annotation,omitempty"` // last rejection note
	Retries    int           `json:"retries"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Progress is derived subtask completion for a task. It is computed on
// read and never persisted.
type Progress struct {
	TaskID     string  `json:"task_id"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
	IsComplete bool    `json:"is_complete"`
}

// Checkpoint is one saved agent state for a task. History is append-only;
// the newest row per (task, agent) is the latest.
type Checkpoint struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	Agent     string          `json:"agent"`
	State     json.RawMessage `json:"state"`
	Summary   string          `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
