package model

import "time"

// Task is a single to-do entry attached to one calendar day of one user.
// Notes is free-form and may be empty; an empty string means "no note".
type Task struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Notes     string    `json:"notes" db:"notes"`
	TaskDate  string    `json:"task_date" db:"task_date"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TasksByDay groups a month's tasks by their date key (YYYY-MM-DD).
// The per-key order is the order the tasks were returned in.
func TasksByDay(tasks []Task) map[string][]Task {
	byDay := make(map[string][]Task, len(tasks))
	for _, t := range tasks {
		byDay[t.TaskDate] = append(byDay[t.TaskDate], t)
	}
	return byDay
}
