package calendar

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale carries the translated calendar vocabulary and label formats.
// Month and weekday names are stored in the casing native to the language;
// headings capitalize the first letter through the locale's casing rules.
type Locale struct {
	tag           language.Tag
	months        [12]string
	weekdaysShort [7]string
	weekdaysLong  [7]string
	dayFormat     string // fmt args: weekday, day, month, year
}

var spanish = Locale{
	tag: language.Spanish,
	months: [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	},
	weekdaysShort: [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"},
	weekdaysLong: [7]string{
		"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	},
	dayFormat: "%s, %d de %s de %d",
}

var english = Locale{
	tag: language.English,
	months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	weekdaysShort: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	weekdaysLong: [7]string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	},
	dayFormat: "%s, %s %d, %d",
}

// LocaleFor returns the locale for a config language code. Unknown codes
// fall back to Spanish, the original application's language.
func LocaleFor(code string) Locale {
	switch code {
	case "en":
		return english
	default:
		return spanish
	}
}

// MonthLabel returns the "Month Year" heading with its first letter
// capitalized, e.g. "Agosto 2026".
func (l Locale) MonthLabel(year, month int) string {
	return l.capitalize(fmt.Sprintf("%s %d", l.months[month-1], year))
}

// DayLabel returns the long date heading used by the day view,
// e.g. "Jueves, 28 de agosto de 2026".
func (l Locale) DayLabel(year, month, day int) string {
	weekday := l.weekdaysLong[weekdayOf(year, month, day)]
	var s string
	if l.tag == language.English {
		s = fmt.Sprintf(l.dayFormat, weekday, l.months[month-1], day, year)
	} else {
		s = fmt.Sprintf(l.dayFormat, weekday, day, l.months[month-1], year)
	}
	return l.capitalize(s)
}

// WeekdayHeaders returns the seven short weekday names, Sunday first.
func (l Locale) WeekdayHeaders() [7]string {
	return l.weekdaysShort
}

// capitalize uppercases the first rune using the locale's casing rules.
func (l Locale) capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	head := cases.Upper(l.tag).String(string(runes[0]))
	return head + string(runes[1:])
}

func weekdayOf(year, month, day int) int {
	return (FirstWeekday(year, month) + day - 1) % 7
}
