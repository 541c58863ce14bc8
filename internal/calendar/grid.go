// Package calendar computes the month grid shown by the UI: cell layout,
// month arithmetic, date keys, and localized labels. Everything here is
// pure; the grid is rebuilt from scratch on every navigation.
package calendar

import (
	"fmt"
	"time"
)

// Grid is the derived layout of one month: FirstWeekday(year, month)
// leading zero cells for the trailing days of the previous month, then the
// day numbers 1..DaysInMonth(year, month).
type Grid struct {
	Year  int
	Month int

	// Cells holds 0 for a leading blank, otherwise the day number.
	Cells []int

	// Label is the localized "Month Year" heading, first letter capitalized.
	Label string
}

// DaysInMonth returns the number of days in the given month. Day zero of
// the following month is its last day, which lets the standard library's
// own calendar rules handle leap years and the December rollover.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday index (0=Sunday .. 6=Saturday) of the
// first day of the given month.
func FirstWeekday(year, month int) int {
	return int(time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC).Weekday())
}

// BuildGrid computes the ordered cell sequence and heading for one month.
func BuildGrid(year, month int, loc Locale) Grid {
	days := DaysInMonth(year, month)
	offset := FirstWeekday(year, month)

	cells := make([]int, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, 0)
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, d)
	}

	return Grid{
		Year:  year,
		Month: month,
		Cells: cells,
		Label: loc.MonthLabel(year, month),
	}
}

// PrevMonth shifts the reference month back by one, wrapping January to
// December of the previous year.
func PrevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth shifts the reference month forward by one, wrapping December
// to January of the next year.
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// DateKey formats a calendar day as the ISO YYYY-MM-DD string used as the
// task index key.
func DateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// MonthRange returns the first and last date keys of the given month,
// for inclusive range queries.
func MonthRange(year, month int) (string, string) {
	return DateKey(year, month, 1), DateKey(year, month, DaysInMonth(year, month))
}

// Today returns the current date split into grid coordinates.
func Today() (year, month, day int) {
	now := time.Now()
	return now.Year(), int(now.Month()), now.Day()
}
