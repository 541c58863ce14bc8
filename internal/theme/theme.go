package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStyle renders transient error notices in the status area.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// Month grid cell styles.
var (
	// WeekdayHeaderStyle renders the row of weekday abbreviations.
	WeekdayHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGray).
				Align(lipgloss.Center)

	// DayCellStyle is the base style for a day number in the grid.
	DayCellStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	// TodayCellStyle marks the current date.
	TodayCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorBlue).
			Align(lipgloss.Center)

	// SelectedCellStyle marks the cursor position in the grid.
	SelectedCellStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorYellow).
				Align(lipgloss.Center)

	// TaskCountStyle renders the per-day pending task badge.
	TaskCountStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)
)

// Task list item styles.
var (
	// ListItemStyle is the base style for items in a day's task list.
	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	// SelectedItemStyle highlights the currently focused task.
	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(ColorBlue).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorBlue)

	// CompletedStyle strikes through finished tasks.
	CompletedStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(ColorGray)

	// NotesStyle renders task notes under the title.
	NotesStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			PaddingLeft(4)
)

// StrengthStyle returns a color-coded style for a password strength label.
func StrengthStyle(strength string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch strength {
	case "weak":
		return base.Foreground(ColorRed)
	case "medium":
		return base.Foreground(ColorYellow)
	case "strong":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
