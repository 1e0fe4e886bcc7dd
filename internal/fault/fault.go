// Package fault defines the error taxonomy shared by all engine subsystems.
//
// Callers match with errors.Is: the tool layer maps each class to an
// actionable message, and retry policy hangs off the class (Timeout is
// retryable, NotFound and InvalidTransition are not).
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup for a task, subtask, memory, or
	// checkpoint id that does not exist. Surfaced to the caller, never
	// retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an illegal state-machine move. Surfaced,
	// never silently coerced into a legal one.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrBuild marks a fatal code-graph build failure (unreadable project
	// root). Single-file extraction errors are recorded on the graph
	// instead and do not carry this class.
	ErrBuild = errors.New("build failed")

	// ErrTimeout marks an operation that exceeded its time budget
	// (graph build, embedding, dispatch). The caller may retry with
	// backoff; the engine never auto-retries.
	ErrTimeout = errors.New("timed out")

	// ErrScopeViolation marks a semantic search result outside the
	// scoping project. This is an internal bug, asserted in tests, and
	// must never reach a user.
	ErrScopeViolation = errors.New("scope violation")
)

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// InvalidTransition wraps ErrInvalidTransition with the attempted move.
func InvalidTransition(subject, from, to string) error {
	return fmt.Errorf("%s cannot move from %q to %q: %w", subject, from, to, ErrInvalidTransition)
}

// Timeout wraps ErrTimeout with the operation that ran out of budget.
func Timeout(op string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%s: %v: %w", op, cause, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, ErrTimeout)
}
