package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/plan/internal/core"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestWeekDays(t *testing.T) {
	t.Parallel()

	// Sunday belongs to the week that started the Monday before
	days := WeekDays(time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC))
	require.Len(t, days, 7)
	assert.Equal(t, d(2026, 10, 12), days[0])
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, d(2026, 10, 18), days[6])

	days = WeekDays(d(2026, 10, 12))
	assert.Equal(t, d(2026, 10, 12), days[0])

	days = WeekDays(d(2026, 1, 1))
	assert.Equal(t, d(2025, 12, 29), days[0])
}

func TestMonthGrid(t *testing.T) {
	t.Parallel()

	grid := MonthGrid(d(2026, 10, 18))
	assert.Equal(t, d(2026, 9, 27), grid[0][0])
	assert.Equal(t, time.Sunday, grid[0][0].Weekday())
	assert.Equal(t, d(2026, 10, 1), grid[0][4])
	assert.Equal(t, d(2026, 11, 7), grid[5][6])

	// month starting on a Sunday has no leading cells
	grid = MonthGrid(d(2026, 2, 10))
	assert.Equal(t, d(2026, 2, 1), grid[0][0])
}

func TestSpanAndNavigate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	w := Span(ViewDay, at)
	assert.Equal(t, d(2026, 10, 18), w.From)
	assert.Equal(t, d(2026, 10, 19), w.To)

	w = Span(ViewWeek, at)
	assert.Equal(t, d(2026, 10, 12), w.From)
	assert.Equal(t, d(2026, 10, 19), w.To)

	w = Span(ViewMonth, at)
	assert.Equal(t, d(2026, 9, 27), w.From)
	assert.Equal(t, d(2026, 11, 8), w.To)

	assert.Equal(t, at.AddDate(0, 0, -1), Navigate(ViewDay, at, -1))
	assert.Equal(t, at.AddDate(0, 0, 14), Navigate(ViewWeek, at, 2))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), Navigate(ViewMonth, d(2026, 1, 31), 1))
}

func TestParseView(t *testing.T) {
	t.Parallel()

	v, err := ParseView("week")
	require.NoError(t, err)
	assert.Equal(t, ViewWeek, v)

	_, err = ParseView("year")
	assert.Error(t, err)
}

func TestDayOccurrences(t *testing.T) {
	t.Parallel()

	occ := []core.Occurrence{
		core.Single(core.Event{ID: 1, Start: time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC)}),
		core.Single(core.Event{ID: 2, Start: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}),
		core.Single(core.Event{ID: 3, Start: time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)}),
	}
	got := DayOccurrences(occ, d(2026, 10, 18))
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	occ := []core.Occurrence{
		core.Single(core.Event{ID: 1, Title: "Gym", Category: core.CategoryFitness}),
		core.Single(core.Event{ID: 2, Title: "Sprint review", Description: "Demo the GYM app", Category: core.CategoryWork}),
		core.Single(core.Event{ID: 3, Title: "Dinner", Category: core.CategoryPersonal}),
	}

	ids := func(occ []core.Occurrence) []int64 {
		var out []int64
		for _, o := range occ {
			out = append(out, o.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"zero filter shows all", Filter{}, []int64{1, 2, 3}},
		{"blank query", Filter{Query: "   "}, []int64{1, 2, 3}},
		{"query matches title and description", Filter{Query: "gym"}, []int64{1, 2}},
		{"category off", Filter{Categories: CategorySet([]string{"work", "personal"})}, []int64{2, 3}},
		{"both", Filter{Categories: CategorySet([]string{"work", "fitness"}), Query: "Gym"}, []int64{1, 2}},
		{"none active", Filter{Categories: map[core.Category]bool{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(occ)))
		})
	}
}

func TestFilterToggle(t *testing.T) {
	t.Parallel()

	var f Filter
	f.Toggle(core.CategoryMeeting)
	assert.False(t, f.Active(core.CategoryMeeting))
	assert.True(t, f.Active(core.CategoryWork))
	assert.Equal(t, []string{"work", "personal", "fitness", "education", "other"}, f.Keys())

	f.Toggle(core.CategoryMeeting)
	assert.Len(t, f.Keys(), 6)
	assert.Len(t, AllCategories(), 6)
	assert.Equal(t, map[core.Category]bool{core.CategoryWork: true}, CategorySet([]string{"work", "bogus"}))
}
