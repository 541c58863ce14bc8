// Package monthview renders the month grid: weekday headers, one cell per
// day, a cursor, and a pending-task badge per day fed from a single
// month-wide query.
package monthview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/keys"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/theme"
)

// OpenDayMsg is dispatched when the user opens a day cell.
type OpenDayMsg struct {
	Year  int
	Month int
	Day   int
}

// MonthChangedMsg is dispatched when the user pages to another month, so
// the root model can re-fetch tasks and repoint the watcher.
type MonthChangedMsg struct {
	Year  int
	Month int
}

const cellWidth = 9

// Model is the Bubble Tea model for the month grid.
type Model struct {
	keymap *keys.KeyMap
	loc    calendar.Locale

	year   int
	month  int
	grid   calendar.Grid
	cursor int // selected day of month, 1-based

	// pending and done task counts per date key
	pending map[string]int
	done    map[string]int

	width  int
	height int
}

// New creates a month view positioned on today.
func New(keymap *keys.KeyMap, loc calendar.Locale, width, height int) Model {
	year, month, day := calendar.Today()
	m := Model{
		keymap:  keymap,
		loc:     loc,
		year:    year,
		month:   month,
		cursor:  day,
		pending: map[string]int{},
		done:    map[string]int{},
		width:   width,
		height:  height,
	}
	m.grid = calendar.BuildGrid(year, month, loc)
	return m
}

// Year returns the displayed year.
func (m Model) Year() int { return m.year }

// Month returns the displayed month.
func (m Model) Month() int { return m.month }

// SetTasks replaces the badge counts from a month snapshot.
func (m *Model) SetTasks(tasks []model.Task) {
	m.pending = map[string]int{}
	m.done = map[string]int{}
	for _, t := range tasks {
		if t.Completed {
			m.done[t.TaskDate]++
		} else {
			m.pending[t.TaskDate]++
		}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the month grid.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keymap.Left):
		return m.moveCursor(-1)
	case key.Matches(keyMsg, m.keymap.Right):
		return m.moveCursor(1)
	case key.Matches(keyMsg, m.keymap.Up):
		return m.moveCursor(-7)
	case key.Matches(keyMsg, m.keymap.Down):
		return m.moveCursor(7)

	case key.Matches(keyMsg, m.keymap.PrevMonth):
		y, mo := calendar.PrevMonth(m.year, m.month)
		return m.gotoMonth(y, mo)
	case key.Matches(keyMsg, m.keymap.NextMonth):
		y, mo := calendar.NextMonth(m.year, m.month)
		return m.gotoMonth(y, mo)

	case key.Matches(keyMsg, m.keymap.Today):
		y, mo, d := calendar.Today()
		changed := y != m.year || mo != m.month
		m.year, m.month, m.cursor = y, mo, d
		m.grid = calendar.BuildGrid(y, mo, m.loc)
		if changed {
			return m, monthChangedCmd(y, mo)
		}
		return m, nil

	case key.Matches(keyMsg, m.keymap.Select):
		year, month, day := m.year, m.month, m.cursor
		return m, func() tea.Msg {
			return OpenDayMsg{Year: year, Month: month, Day: day}
		}
	}

	return m, nil
}

// moveCursor shifts the selection, spilling over into the adjacent month
// when it walks off either end. A spill changes the displayed month, so
// it announces the change the same way explicit paging does.
func (m Model) moveCursor(delta int) (Model, tea.Cmd) {
	next := m.cursor + delta
	if next < 1 {
		y, mo := calendar.PrevMonth(m.year, m.month)
		m.year, m.month = y, mo
		m.grid = calendar.BuildGrid(y, mo, m.loc)
		m.cursor = calendar.DaysInMonth(y, mo) + next
		if m.cursor < 1 {
			m.cursor = 1
		}
		return m, monthChangedCmd(y, mo)
	}
	if days := calendar.DaysInMonth(m.year, m.month); next > days {
		y, mo := calendar.NextMonth(m.year, m.month)
		m.year, m.month = y, mo
		m.grid = calendar.BuildGrid(y, mo, m.loc)
		m.cursor = next - days
		if max := calendar.DaysInMonth(y, mo); m.cursor > max {
			m.cursor = max
		}
		return m, monthChangedCmd(y, mo)
	}
	m.cursor = next
	return m, nil
}

// gotoMonth pages to another month, clamping the cursor to its length.
func (m Model) gotoMonth(year, month int) (Model, tea.Cmd) {
	m.year, m.month = year, month
	m.grid = calendar.BuildGrid(year, month, m.loc)
	if days := calendar.DaysInMonth(year, month); m.cursor > days {
		m.cursor = days
	}
	return m, monthChangedCmd(year, month)
}

func monthChangedCmd(year, month int) tea.Cmd {
	return func() tea.Msg { return MonthChangedMsg{Year: year, Month: month} }
}

// SelectedDate returns the date key under the cursor.
func (m Model) SelectedDate() string {
	return calendar.DateKey(m.year, m.month, m.cursor)
}

// View renders the month grid.
func (m Model) View() string {
	var b strings.Builder

	label := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render(m.grid.Label)
	b.WriteString(lipgloss.PlaceHorizontal(cellWidth*7, lipgloss.Center, label))
	b.WriteString("\n\n")

	headers := m.loc.WeekdayHeaders()
	cells := make([]string, 7)
	for i, h := range headers {
		cells[i] = theme.WeekdayHeaderStyle.Width(cellWidth).Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	b.WriteString("\n")

	// The cell list is not padded, so the final week may be short.
	todayYear, todayMonth, todayDay := calendar.Today()
	for start := 0; start < len(m.grid.Cells); start += 7 {
		week := make([]string, 7)
		for col := 0; col < 7; col++ {
			day := 0
			if idx := start + col; idx < len(m.grid.Cells) {
				day = m.grid.Cells[idx]
			}
			week[col] = m.renderCell(day, todayYear, todayMonth, todayDay)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, week...))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// renderCell draws one day cell: the day number plus a pending badge.
func (m Model) renderCell(day, todayYear, todayMonth, todayDay int) string {
	if day == 0 {
		return strings.Repeat(" ", cellWidth)
	}

	text := fmt.Sprintf("%2d", day)
	dateKey := calendar.DateKey(m.year, m.month, day)
	pending := m.pending[dateKey]
	switch {
	case pending > 0:
		text += fmt.Sprintf(" •%d", pending)
	case m.done[dateKey] > 0:
		// All of the day's tasks are done.
		text += " ✓"
	}

	style := theme.DayCellStyle
	switch {
	case day == m.cursor:
		style = theme.SelectedCellStyle
	case m.year == todayYear && m.month == todayMonth && day == todayDay:
		style = theme.TodayCellStyle
	case pending > 0:
		style = theme.DayCellStyle.Inherit(theme.TaskCountStyle)
	}

	return style.Width(cellWidth).Render(text)
}
