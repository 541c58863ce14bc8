package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/remote"
)

const tasksPath = "/rest/v1/tasks"

// RemoteStore implements TaskStore against the hosted row store. Row
// ownership is enforced server-side; the user id filter only narrows the
// result set.
type RemoteStore struct {
	client *remote.Client
}

// NewRemoteStore creates a task store backed by the hosted service.
func NewRemoteStore(client *remote.Client) *RemoteStore {
	return &RemoteStore{client: client}
}

// Close is a no-op; the HTTP client holds no resources of its own.
func (s *RemoteStore) Close() error { return nil }

// taskRow is the wire shape of one row in the tasks table.
type taskRow struct {
	ID        json.Number `json:"id"`
	UserID    string      `json:"user_id"`
	Title     string      `json:"title"`
	Notes     *string     `json:"notes"`
	TaskDate  string      `json:"task_date"`
	Completed bool        `json:"completed"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (r taskRow) toTask() model.Task {
	notes := ""
	if r.Notes != nil {
		notes = *r.Notes
	}
	return model.Task{
		ID:        r.ID.String(),
		UserID:    r.UserID,
		Title:     r.Title,
		Notes:     notes,
		TaskDate:  r.TaskDate,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toTasks(rows []taskRow) []model.Task {
	if len(rows) == 0 {
		return nil
	}
	tasks := make([]model.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.toTask()
	}
	return tasks
}

// ListByDate returns the user's tasks for one date key, oldest first.
func (s *RemoteStore) ListByDate(ctx context.Context, userID, dateKey string) ([]model.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("task_date", "eq."+dateKey)
	q.Set("order", "created_at.asc,id.asc")
	q.Set("select", "*")

	var rows []taskRow
	if err := s.client.Get(ctx, tasksPath+"?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("listing tasks for %s: %w", dateKey, err)
	}
	return toTasks(rows), nil
}

// ListByMonth returns the user's tasks inside the month with one ranged
// query instead of a query per day.
func (s *RemoteStore) ListByMonth(ctx context.Context, userID string, year, month int) ([]model.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	start, end := calendar.MonthRange(year, month)

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("select", "*")
	q.Set("order", "task_date.asc,created_at.asc,id.asc")
	q.Add("and", fmt.Sprintf("(task_date.gte.%s,task_date.lte.%s)", start, end))

	var rows []taskRow
	if err := s.client.Get(ctx, tasksPath+"?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("listing tasks for %04d-%02d: %w", year, month, err)
	}
	return toTasks(rows), nil
}

// Add inserts a row and returns the server's stored representation,
// including the server-generated id and timestamps.
func (s *RemoteStore) Add(ctx context.Context, userID, title, notes, dateKey string) (model.Task, error) {
	if userID == "" {
		return model.Task{}, ErrUnauthenticated
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}

	var notesField *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesField = &trimmed
	}

	body := []map[string]interface{}{{
		"user_id":   userID,
		"title":     title,
		"notes":     notesField,
		"task_date": dateKey,
		"completed": false,
	}}

	var rows []taskRow
	if err := s.client.Post(ctx, tasksPath, body, &rows); err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	if len(rows) == 0 {
		return model.Task{}, fmt.Errorf("creating task: empty response")
	}
	return rows[0].toTask(), nil
}

// Update merges the patch into the row and returns the stored result.
// An empty patch degrades to a plain fetch, since the row API rejects a
// write with no columns.
func (s *RemoteStore) Update(ctx context.Context, id string, patch Patch) (model.Task, error) {
	if patch.Empty() {
		return s.getTask(ctx, id)
	}

	body := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, ErrEmptyTitle
		}
		body["title"] = title
	}
	if patch.Notes != nil {
		if trimmed := strings.TrimSpace(*patch.Notes); trimmed != "" {
			body["notes"] = trimmed
		} else {
			body["notes"] = nil
		}
	}
	if patch.Completed != nil {
		body["completed"] = *patch.Completed
	}

	var rows []taskRow
	err := s.client.Patch(ctx, tasksPath+"?id=eq."+url.QueryEscape(id), body, &rows)
	if err != nil {
		return model.Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.Task{}, ErrNotFound
	}
	return rows[0].toTask(), nil
}

// ToggleComplete writes the negation of the caller's known completed
// value. The flip is computed client-side, so two sessions toggling at
// once are last write wins.
func (s *RemoteStore) ToggleComplete(ctx context.Context, id string, currentCompleted bool) (model.Task, error) {
	next := !currentCompleted
	return s.Update(ctx, id, Patch{Completed: &next})
}

// Remove deletes the row. The row API reports a delete of a missing row
// as success, which keeps double-fired realtime deletions quiet; a 404 is
// swallowed for the same reason.
func (s *RemoteStore) Remove(ctx context.Context, id string) error {
	err := s.client.Delete(ctx, tasksPath+"?id=eq."+url.QueryEscape(id))
	if err != nil && !remote.IsNotFound(err) {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// getTask fetches a single row by id.
func (s *RemoteStore) getTask(ctx context.Context, id string) (model.Task, error) {
	var rows []taskRow
	err := s.client.Get(ctx, tasksPath+"?id=eq."+url.QueryEscape(id), &rows)
	if err != nil {
		return model.Task{}, fmt.Errorf("getting task %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.Task{}, ErrNotFound
	}
	return rows[0].toTask(), nil
}
