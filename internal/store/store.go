// Package store persists the task index: every task keyed by its owner and
// its calendar date. Two implementations exist behind the same contract,
// one over an embedded SQLite database and one proxying a hosted row store.
package store

import (
	"context"
	"errors"

	"github.com/mflores/dayplan/internal/model"
)

// Sentinel errors shared by both task store implementations.
var (
	// ErrUnauthenticated is returned when an operation that requires an
	// owner is called without one.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrEmptyTitle is returned by Add when the title is empty after
	// trimming whitespace.
	ErrEmptyTitle = errors.New("title required")

	// ErrNotFound is returned when a task id does not exist. Remove never
	// returns it; deleting an already-absent task is a no-op.
	ErrNotFound = errors.New("task not found")

	// ErrUserExists is returned by CreateUser for a duplicate username.
	ErrUserExists = errors.New("user already exists")
)

// Patch carries a partial task update. Nil fields are left untouched; a
// patch with no fields set is legal and returns the task unchanged.
type Patch struct {
	Title     *string
	Notes     *string
	Completed *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Notes == nil && p.Completed == nil
}

// TaskStore is the date-keyed task index contract. All list results are
// ordered by creation time ascending with a stable tiebreak, so tasks on
// one day keep their insertion order.
type TaskStore interface {
	// ListByDate returns the user's tasks for one date key (YYYY-MM-DD).
	ListByDate(ctx context.Context, userID, dateKey string) ([]model.Task, error)

	// ListByMonth returns all of the user's tasks whose date falls inside
	// the given month, so a month view needs one query instead of one per
	// day.
	ListByMonth(ctx context.Context, userID string, year, month int) ([]model.Task, error)

	// Add stores a new, uncompleted task and returns it with its assigned
	// id. The title is trimmed and must be non-empty; whitespace-only
	// notes are stored as empty.
	Add(ctx context.Context, userID, title, notes, dateKey string) (model.Task, error)

	// Update merges the patch into the task and returns the stored result.
	Update(ctx context.Context, id string, patch Patch) (model.Task, error)

	// ToggleComplete writes the negation of the caller's known completed
	// value. There is no atomic flip; concurrent toggles are last write
	// wins.
	ToggleComplete(ctx context.Context, id string, currentCompleted bool) (model.Task, error)

	// Remove deletes the task. Deleting a task that is already gone is
	// not an error.
	Remove(ctx context.Context, id string) error

	Close() error
}
