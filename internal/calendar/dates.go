// Package calendar holds the view-level helpers shared by the CLI and the
// TUI: which days a view shows, which occurrences fall on a day, and the
// category/search filter.
package calendar

import (
	"fmt"
	"slices"
	"time"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/geometry"
	"github.com/theakshaypant/plan/internal/recurrence"
)

// View is the calendar layout.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ParseView accepts day, week or month.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewDay, ViewWeek, ViewMonth:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q (want day, week or month)", s)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	return geometry.StartOfDay(t)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekDays returns the seven days of the Monday-based week containing date.
func WeekDays(date time.Time) []time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	monday := StartOfDay(date).AddDate(0, 0, -offset)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// MonthGrid returns six Sunday-based weeks covering the month of date.
// Leading and trailing cells belong to the neighbouring months.
func MonthGrid(date time.Time) [6][7]time.Time {
	y, m, _ := date.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, date.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var grid [6][7]time.Time
	for i := 0; i < 42; i++ {
		grid[i/7][i%7] = start.AddDate(0, 0, i)
	}
	return grid
}

// Span returns the expansion window a view needs around date.
func Span(v View, date time.Time) recurrence.Window {
	switch v {
	case ViewWeek:
		return recurrence.Days(WeekDays(date)[0], 7)
	case ViewMonth:
		grid := MonthGrid(date)
		return recurrence.Days(grid[0][0], 42)
	default:
		return recurrence.Day(date)
	}
}

// Navigate moves date by delta units of the view: days, weeks or months.
func Navigate(v View, date time.Time, delta int) time.Time {
	switch v {
	case ViewWeek:
		return date.AddDate(0, 0, 7*delta)
	case ViewMonth:
		return recurrence.AddMonths(date, delta)
	default:
		return date.AddDate(0, 0, delta)
	}
}

// DayOccurrences returns the occurrences that start on day, sorted by start.
func DayOccurrences(occ []core.Occurrence, day time.Time) []core.Occurrence {
	var out []core.Occurrence
	for _, o := range occ {
		if SameDay(o.Start, day) {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Occurrence) int {
		return a.Start.Compare(b.Start)
	})
	return out
}
