package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, 2)) // leap year
	assert.Equal(t, 28, DaysInMonth(2025, 2))
	assert.Equal(t, 28, DaysInMonth(1900, 2)) // century, not a leap year
	assert.Equal(t, 29, DaysInMonth(2000, 2)) // 400-year rule
	assert.Equal(t, 31, DaysInMonth(2025, 12))
	assert.Equal(t, 31, DaysInMonth(2025, 1))
	assert.Equal(t, 30, DaysInMonth(2025, 4))
}

func TestBuildGridCellLayout(t *testing.T) {
	loc := LocaleFor("es")

	// February 2024: leap year, 29 day cells.
	g := BuildGrid(2024, 2, loc)
	dayCells := 0
	for _, c := range g.Cells {
		if c != 0 {
			dayCells++
		}
	}
	assert.Equal(t, 29, dayCells)

	g = BuildGrid(2025, 2, loc)
	dayCells = 0
	for _, c := range g.Cells {
		if c != 0 {
			dayCells++
		}
	}
	assert.Equal(t, 28, dayCells)
}

func TestBuildGridOffsetMatchesWeekday(t *testing.T) {
	loc := LocaleFor("es")
	for year := 2020; year <= 2030; year++ {
		for month := 1; month <= 12; month++ {
			g := BuildGrid(year, month, loc)

			blanks := 0
			for _, c := range g.Cells {
				if c != 0 {
					break
				}
				blanks++
			}

			want := int(time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC).Weekday())
			require.Equal(t, want, blanks, "%04d-%02d", year, month)

			// Day numbers follow in order after the blanks.
			for i, c := range g.Cells[blanks:] {
				require.Equal(t, i+1, c)
			}
		}
	}
}

func TestMonthNavigationWrapsYears(t *testing.T) {
	y, m := NextMonth(2024, 12)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 1, m)

	y, m = PrevMonth(2025, 1)
	assert.Equal(t, 2024, y)
	assert.Equal(t, 12, m)

	y, m = NextMonth(2025, 6)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 7, m)
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2026-08-03", DateKey(2026, 8, 3))
	assert.Equal(t, "0999-12-31", DateKey(999, 12, 31))

	start, end := MonthRange(2024, 2)
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)
}

func TestLocaleLabels(t *testing.T) {
	es := LocaleFor("es")
	assert.Equal(t, "Agosto 2026", es.MonthLabel(2026, 8))
	assert.Equal(t, "Enero 2025", es.MonthLabel(2025, 1))

	// 2026-08-28 is a Friday.
	assert.Equal(t, "Viernes, 28 de agosto de 2026", es.DayLabel(2026, 8, 28))

	en := LocaleFor("en")
	assert.Equal(t, "August 2026", en.MonthLabel(2026, 8))
	assert.Equal(t, "Friday, August 28, 2026", en.DayLabel(2026, 8, 28))

	// Unknown codes fall back to Spanish.
	assert.Equal(t, "Agosto 2026", LocaleFor("fr").MonthLabel(2026, 8))
}
