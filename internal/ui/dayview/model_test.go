package dayview

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/keys"
	"github.com/mflores/dayplan/internal/model"
)

func newTestModel(tasks []model.Task) Model {
	m := New(keys.DefaultKeyMap(), calendar.LocaleFor("en"), 80, 24)
	m.Start(2026, 8, 28, tasks)
	return m
}

func sampleTasks() []model.Task {
	now := time.Now().UTC()
	return []model.Task{
		{ID: "t1", Title: "Buy bread", TaskDate: "2026-08-28", CreatedAt: now, UpdatedAt: now},
		{ID: "t2", Title: "Call dentist", Notes: "at 10am", Completed: true, TaskDate: "2026-08-28", CreatedAt: now, UpdatedAt: now},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestStartResetsState(t *testing.T) {
	m := newTestModel(sampleTasks())
	assert.Equal(t, "2026-08-28", m.DateKey())
	assert.Contains(t, m.View(), "Buy bread")
	assert.Contains(t, m.View(), "1 of 2 done")
}

func TestToggleEmitsAndBlocksWhileBusy(t *testing.T) {
	m := newTestModel(sampleTasks())

	m, cmd := m.Update(keyMsg("x"))
	require.NotNil(t, cmd)

	msg := cmd()
	toggle, ok := msg.(ToggleTaskMsg)
	require.True(t, ok)
	assert.Equal(t, "t1", toggle.ID)
	assert.False(t, toggle.Completed)

	// A second toggle before the store answers is swallowed.
	_, cmd = m.Update(keyMsg("x"))
	assert.Nil(t, cmd)
}

func TestSetTasksClearsBusyAndClampsCursor(t *testing.T) {
	m := newTestModel(sampleTasks())

	// Move to the last task and delete it.
	m, _ = m.Update(keyMsg("j"))
	m, cmd := m.Update(keyMsg("d"))
	require.NotNil(t, cmd)
	del, ok := cmd().(DeleteTaskMsg)
	require.True(t, ok)
	assert.Equal(t, "t2", del.ID)

	// Store answers with one task left; cursor must stay in range.
	m.SetTasks(sampleTasks()[:1])
	m, cmd = m.Update(keyMsg("x"))
	require.NotNil(t, cmd)
	toggle := cmd().(ToggleTaskMsg)
	assert.Equal(t, "t1", toggle.ID)
}

func TestAddFormOpensAndDiscards(t *testing.T) {
	m := newTestModel(nil)
	assert.Contains(t, m.View(), "No tasks")

	m, _ = m.Update(keyMsg("a"))
	assert.Contains(t, m.View(), "New Task")

	// Esc discards the draft and returns to the list.
	m, _ = m.Update(keyMsg("esc"))
	assert.Contains(t, m.View(), "No tasks")
}

func TestEditFormPrefills(t *testing.T) {
	m := newTestModel(sampleTasks())

	m, _ = m.Update(keyMsg("e"))
	assert.Contains(t, m.View(), "Edit Task")
	assert.Equal(t, "Buy bread", m.fb.title)
}

func TestBackEmitsClose(t *testing.T) {
	m := newTestModel(sampleTasks())

	_, cmd := m.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	_, ok := cmd().(CloseMsg)
	assert.True(t, ok)
}

func TestSetTasksKeepsUnsubmittedFormOpen(t *testing.T) {
	m := newTestModel(nil)

	// The user opens the add form before the initial day load answers.
	m, _ = m.Update(keyMsg("a"))
	m.fb.title = "draft title"

	m.SetTasks(sampleTasks())

	// The load must not eat the draft; only a submission closes the form.
	view := m.View()
	assert.Contains(t, view, "New Task")
	assert.Equal(t, "draft title", m.fb.title)
	assert.Len(t, m.tasks, 2)
}

func TestSetErrorKeepsFormOpen(t *testing.T) {
	m := newTestModel(nil)
	m, _ = m.Update(keyMsg("a"))
	m.fb.title = "draft title"

	cmd := m.SetError("storage unavailable")
	require.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "storage unavailable")
	assert.Contains(t, view, "New Task")
	// The draft survives the error.
	assert.Equal(t, "draft title", m.fb.title)
}

func TestDayHeaderUsesLocale(t *testing.T) {
	m := newTestModel(nil)
	assert.Contains(t, m.View(), "Friday, August 28, 2026")

	es := New(keys.DefaultKeyMap(), calendar.LocaleFor("es"), 80, 24)
	es.Start(2026, 8, 28, nil)
	assert.Contains(t, es.View(), "Viernes, 28 de agosto de 2026")
}
