package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mflores/dayplan/internal/model"
)

// SQLiteStore implements TaskStore over a local SQLite database. It also
// holds the local backend's user registry.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// === User registry (local backend only) ===

// CreateUser inserts a new registry entry with its password hash.
// The username is the unique key; duplicate emails under different
// usernames are allowed.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User, passwordHash string) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, passwordHash, u.CreatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("creating user %s: %w", u.Username, err)
	}
	return nil
}

// GetUserByUsername returns the registry entry and its password hash.
// A missing user yields sql.ErrNoRows wrapped in the returned error.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (model.User, string, error) {
	var (
		u    model.User
		hash string
	)
	row := s.db.QueryRowxContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?",
		username,
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &hash, &u.CreatedAt); err != nil {
		return model.User{}, "", fmt.Errorf("getting user %s: %w", username, err)
	}
	return u, hash, nil
}

// GetUserByID returns the registry entry for an id, or nil when absent.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	row := s.db.QueryRowxContext(ctx,
		"SELECT id, username, email, created_at FROM users WHERE id = ?", id,
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user id %s: %w", id, err)
	}
	return &u, nil
}

// === Task index ===

// ListByDate returns the user's tasks for one date key, oldest first.
// The rowid tiebreak keeps insertion order for same-timestamp rows.
func (s *SQLiteStore) ListByDate(ctx context.Context, userID, dateKey string) ([]model.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, user_id, title, notes, task_date, completed, created_at, updated_at
		FROM tasks WHERE user_id = ? AND task_date = ?
		ORDER BY created_at ASC, rowid ASC`,
		userID, dateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for %s: %w", dateKey, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListByMonth returns all of the user's tasks within the month, ordered by
// date then creation time.
func (s *SQLiteStore) ListByMonth(ctx context.Context, userID string, year, month int) ([]model.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	start := fmt.Sprintf("%04d-%02d-01", year, month)
	end := fmt.Sprintf("%04d-%02d-31", year, month)

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, user_id, title, notes, task_date, completed, created_at, updated_at
		FROM tasks WHERE user_id = ? AND task_date >= ? AND task_date <= ?
		ORDER BY task_date ASC, created_at ASC, rowid ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for %04d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Add inserts a new task for the user and date and returns the stored row.
func (s *SQLiteStore) Add(ctx context.Context, userID, title, notes, dateKey string) (model.Task, error) {
	if userID == "" {
		return model.Task{}, ErrUnauthenticated
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		return model.Task{}, fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}

	now := time.Now().UTC()
	t := model.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Notes:     strings.TrimSpace(notes),
		TaskDate:  dateKey,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, notes, task_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Notes, t.TaskDate,
		boolToInt(t.Completed), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}

	return t, nil
}

// Update merges the patch into the task and returns the stored result.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch Patch) (model.Task, error) {
	existing, err := s.getTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if patch.Empty() {
		return existing, nil
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, ErrEmptyTitle
		}
		existing.Title = title
	}
	if patch.Notes != nil {
		existing.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Completed != nil {
		existing.Completed = *patch.Completed
	}
	existing.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, notes = ?, completed = ?, updated_at = ?
		WHERE id = ?`,
		existing.Title, existing.Notes, boolToInt(existing.Completed),
		existing.UpdatedAt, id,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}

	return existing, nil
}

// ToggleComplete writes the negation of the caller's known completed value.
func (s *SQLiteStore) ToggleComplete(ctx context.Context, id string, currentCompleted bool) (model.Task, error) {
	next := !currentCompleted
	return s.Update(ctx, id, Patch{Completed: &next})
}

// Remove deletes the task. A missing row is not an error, so a delete that
// races a realtime notification never fails on the second pass.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// getTask loads a single task row by id.
func (s *SQLiteStore) getTask(ctx context.Context, id string) (model.Task, error) {
	var (
		t         model.Task
		completed int
	)
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, user_id, title, notes, task_date, completed, created_at, updated_at
		FROM tasks WHERE id = ?`, id,
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Notes, &t.TaskDate,
		&completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("getting task %s: %w", id, err)
	}
	t.Completed = completed != 0
	return t, nil
}

// scanTasks drains a task result set.
func scanTasks(rows *sqlx.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		var (
			t         model.Task
			completed int
		)
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Notes, &t.TaskDate,
			&completed, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		t.Completed = completed != 0
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
