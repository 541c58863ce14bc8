// Package dayview shows one day's tasks and hosts the add/edit form.
// Only one edit can be active at a time, and a submission in flight
// blocks further submits until the store answers.
package dayview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/keys"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/theme"
)

// AddTaskMsg is dispatched when the add form is submitted.
type AddTaskMsg struct {
	DateKey string
	Title   string
	Notes   string
}

// UpdateTaskMsg is dispatched when the edit form is submitted.
type UpdateTaskMsg struct {
	ID    string
	Title string
	Notes string
}

// ToggleTaskMsg is dispatched when a task's completion is flipped.
type ToggleTaskMsg struct {
	ID        string
	Completed bool
}

// DeleteTaskMsg is dispatched when a task is deleted.
type DeleteTaskMsg struct {
	ID string
}

// CloseMsg is dispatched when the user leaves the day view.
type CloseMsg struct{}

type state int

const (
	stateViewing state = iota
	stateForm
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title string
	notes string
}

// Model is the Bubble Tea model for a single day.
type Model struct {
	keymap *keys.KeyMap
	loc    calendar.Locale

	year  int
	month int
	day   int

	tasks  []model.Task
	cursor int

	state  state
	form   *huh.Form
	fb     *formBindings
	editID string
	busy   bool
	errMsg string

	width  int
	height int
}

// New creates a day view.
func New(keymap *keys.KeyMap, loc calendar.Locale, width, height int) Model {
	return Model{
		keymap: keymap,
		loc:    loc,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start points the view at a date with its task list.
func (m *Model) Start(year, month, day int, tasks []model.Task) {
	m.year, m.month, m.day = year, month, day
	m.tasks = tasks
	m.cursor = 0
	m.state = stateViewing
	m.form = nil
	m.busy = false
	m.errMsg = ""
}

// DateKey returns the displayed date key.
func (m Model) DateKey() string {
	return calendar.DateKey(m.year, m.month, m.day)
}

// SetTasks replaces the task list after a store round trip. When a
// submission is in flight it is considered answered: the form closes and
// the busy flag clears. A form that is still being typed in, as when the
// initial day load lands after the user already opened it, is left alone.
func (m *Model) SetTasks(tasks []model.Task) {
	m.tasks = tasks
	if m.cursor >= len(tasks) {
		m.cursor = len(tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.state == stateForm && !m.busy {
		return
	}
	m.busy = false
	m.errMsg = ""
	m.state = stateViewing
	m.form = nil
}

// RefreshTasks replaces the task list from a background invalidation.
// Unlike SetTasks it leaves an open form and the busy flag alone, so a
// change made in another session never eats a draft being typed here.
func (m *Model) RefreshTasks(tasks []model.Task) {
	m.tasks = tasks
	if m.cursor >= len(tasks) {
		m.cursor = len(tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// SetError reports a failed store operation. The form, if any, stays open
// with everything typed still in place.
func (m *Model) SetError(msg string) tea.Cmd {
	m.busy = false
	m.errMsg = msg
	if m.state == stateForm {
		m.form = m.buildForm()
		return m.form.Init()
	}
	return nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the day view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.state == stateForm {
		return m.updateForm(msg)
	}
	return m.updateViewing(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submitForm()
	}
	if m.form.State == huh.StateAborted {
		// Esc discards the draft.
		m.state = stateViewing
		m.form = nil
		m.errMsg = ""
		return m, nil
	}

	return m, cmd
}

func (m Model) submitForm() (Model, tea.Cmd) {
	title := strings.TrimSpace(m.fb.title)
	notes := strings.TrimSpace(m.fb.notes)

	m.busy = true
	m.errMsg = ""

	if m.editID != "" {
		id := m.editID
		return m, func() tea.Msg {
			return UpdateTaskMsg{ID: id, Title: title, Notes: notes}
		}
	}

	dateKey := m.DateKey()
	return m, func() tea.Msg {
		return AddTaskMsg{DateKey: dateKey, Title: title, Notes: notes}
	}
}

func (m Model) updateViewing(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(keyMsg, m.keymap.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(keyMsg, m.keymap.Add):
		m.editID = ""
		m.fb.title = ""
		m.fb.notes = ""
		m.state = stateForm
		m.errMsg = ""
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keymap.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editID = t.ID
		m.fb.title = t.Title
		m.fb.notes = t.Notes
		m.state = stateForm
		m.errMsg = ""
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keymap.Toggle):
		t, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		return m, func() tea.Msg {
			return ToggleTaskMsg{ID: t.ID, Completed: t.Completed}
		}

	case key.Matches(keyMsg, m.keymap.Delete):
		t, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		return m, func() tea.Msg {
			return DeleteTaskMsg{ID: t.ID}
		}

	case key.Matches(keyMsg, m.keymap.Back):
		return m, func() tea.Msg { return CloseMsg{} }
	}

	return m, nil
}

func (m Model) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return model.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// View renders the day's task list or the active form.
func (m Model) View() string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(m.loc.DayLabel(m.year, m.month, m.day))
	b.WriteString(header)
	b.WriteString("\n")

	if m.state == stateForm && m.form != nil {
		b.WriteString(m.form.View())
		if m.busy {
			b.WriteString("\n")
			b.WriteString(theme.HelpStyle.Render("Saving..."))
		}
	} else {
		b.WriteString(m.renderList())
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderList() string {
	if len(m.tasks) == 0 {
		return theme.HelpStyle.Render("No tasks for this day. Press 'a' to add one.")
	}

	var b strings.Builder
	for i, t := range m.tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}

		title := t.Title
		if t.Completed {
			title = theme.CompletedStyle.Render(title)
		}
		line := fmt.Sprintf("%s %s", mark, title)

		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")

		if t.Notes != "" {
			b.WriteString(theme.NotesStyle.Render(t.Notes))
			b.WriteString("\n")
		}
	}

	done := 0
	for _, t := range m.tasks {
		if t.Completed {
			done++
		}
	}
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(
		fmt.Sprintf("%d of %d done", done, len(m.tasks)),
	))

	return b.String()
}

func (m *Model) buildForm() *huh.Form {
	title := "New Task"
	if m.editID != "" {
		title = "Edit Task"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("What needs doing?").
				Value(&m.fb.title).
				Validate(validateTitle),
			huh.NewText().
				Title("Notes").
				Placeholder("Optional details...").
				Value(&m.fb.notes),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// validateTitle rejects a blank title at the form layer, so the draft
// stays on screen instead of bouncing off the store.
func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("title required")
	}
	return nil
}
