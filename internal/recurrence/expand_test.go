package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/plan/internal/core"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func baseEvent(start time.Time, dur time.Duration, rule core.RepeatRule) core.Event {
	return core.Event{
		ID:          7,
		Title:       "Standup",
		Description: "daily sync",
		Category:    core.CategoryMeeting,
		Completed:   true,
		Start:       start,
		End:         start.Add(dur),
		Repeat:      rule,
	}
}

func TestExpandDailyBound(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 9, 0)
	ev := baseEvent(start, 30*time.Minute, core.RepeatRule{
		Frequency: core.FrequencyDaily,
		Interval:  1,
		Until:     start.AddDate(0, 0, 10),
	})

	occ := Expand(ev, NewIDs(1000))
	require.Len(t, occ, 11)
	for i, o := range occ {
		assert.Equal(t, start.AddDate(0, 0, i), o.Start)
		assert.Equal(t, 30*time.Minute, o.Duration())
		assert.False(t, o.Start.After(ev.Repeat.Until))
		assert.Equal(t, ev.Title, o.Title)
		assert.Equal(t, ev.Category, o.Category)
		assert.Equal(t, ev.Repeat, o.Repeat)
		assert.Equal(t, ev.ID, o.SeriesID)
		assert.Equal(t, i, o.Index)
	}
}

func TestExpandIdentity(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 9, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{
		Frequency: core.FrequencyWeekly,
		Interval:  1,
		Until:     start.AddDate(0, 3, 0),
	})

	occ := Expand(ev, NewIDs(5000))
	require.Greater(t, len(occ), 1)

	assert.Equal(t, ev, occ[0].Event, "base occurrence is the event unchanged")
	assert.True(t, occ[0].Editable())

	seen := map[int64]bool{ev.ID: true}
	for _, o := range occ[1:] {
		assert.False(t, seen[o.ID], "duplicate id %d", o.ID)
		seen[o.ID] = true
		assert.False(t, o.Editable())
		assert.False(t, o.Completed, "generated occurrences start incomplete")
	}
}

func TestExpandPassthrough(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 9, 0)
	tests := []struct {
		name string
		rule core.RepeatRule
	}{
		{"no rule", core.RepeatRule{}},
		{"none with until", core.RepeatRule{Frequency: core.FrequencyNone, Until: start.AddDate(1, 0, 0)}},
		{"daily without until", core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 1}},
		{"until before start", core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 1, Until: start.AddDate(0, 0, -3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := baseEvent(start, time.Hour, tt.rule)
			occ := Expand(ev, NewIDs(1))
			require.Len(t, occ, 1)
			assert.Equal(t, ev, occ[0].Event)
		})
	}
}

func TestExpandNonPositiveInterval(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 9, 0)
	for _, interval := range []int{0, -2} {
		ev := baseEvent(start, time.Hour, core.RepeatRule{
			Frequency: core.FrequencyDaily,
			Interval:  interval,
			Until:     start.AddDate(0, 0, 4),
		})
		occ := Expand(ev, NewIDs(1))
		assert.Len(t, occ, 5, "interval %d acts as 1", interval)
	}
}

func TestExpandZeroDuration(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 12, 0)
	ev := baseEvent(start, 0, core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 2, Until: start.AddDate(0, 0, 6)})

	occ := Expand(ev, NewIDs(1))
	require.Len(t, occ, 4)
	for _, o := range occ {
		assert.Equal(t, o.Start, o.End)
	}
}

func TestExpandCustomActsAsDaily(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 1, 9, 0)
	custom := Expand(baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyCustom, Interval: 3, Until: start.AddDate(0, 0, 9)}), NewIDs(1))
	daily := Expand(baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 3, Until: start.AddDate(0, 0, 9)}), NewIDs(1))

	require.Len(t, custom, 4)
	for i := range custom {
		assert.Equal(t, daily[i].Start, custom[i].Start)
	}
}

func TestExpandMonthlyClamp(t *testing.T) {
	t.Parallel()

	start := date(2026, 1, 31, 10, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyMonthly, Interval: 1, Until: date(2026, 5, 31, 10, 0)})

	var got []time.Time
	for _, o := range Expand(ev, NewIDs(1)) {
		got = append(got, o.Start)
	}
	assert.Equal(t, []time.Time{
		date(2026, 1, 31, 10, 0),
		date(2026, 2, 28, 10, 0),
		date(2026, 3, 31, 10, 0),
		date(2026, 4, 30, 10, 0),
		date(2026, 5, 31, 10, 0),
	}, got)
}

func TestExpandMonthlyClampLeapYear(t *testing.T) {
	t.Parallel()

	start := date(2028, 1, 31, 10, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyMonthly, Interval: 1, Until: date(2028, 2, 29, 23, 0)})

	occ := Expand(ev, NewIDs(1))
	require.Len(t, occ, 2)
	assert.Equal(t, date(2028, 2, 29, 10, 0), occ[1].Start)
}

func TestExpandYearlyFeb29(t *testing.T) {
	t.Parallel()

	start := date(2028, 2, 29, 8, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyYearly, Interval: 1, Until: date(2032, 12, 31, 0, 0)})

	var got []time.Time
	for _, o := range Expand(ev, NewIDs(1)) {
		got = append(got, o.Start)
	}
	assert.Equal(t, []time.Time{
		date(2028, 2, 29, 8, 0),
		date(2029, 2, 28, 8, 0),
		date(2030, 2, 28, 8, 0),
		date(2031, 2, 28, 8, 0),
		date(2032, 2, 29, 8, 0),
	}, got)
}

func TestExpandUntilInclusive(t *testing.T) {
	t.Parallel()

	start := date(2026, 3, 2, 9, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyWeekly, Interval: 2, Until: date(2026, 3, 30, 9, 0)})

	occ := Expand(ev, NewIDs(1))
	require.Len(t, occ, 3)
	assert.Equal(t, date(2026, 3, 30, 9, 0), occ[2].Start)
}

func TestOccurrencesIsLazy(t *testing.T) {
	t.Parallel()

	start := date(2026, 1, 1, 9, 0)
	ev := baseEvent(start, time.Hour, core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 1, Until: date(9999, 1, 1, 0, 0)})

	ids := NewIDs(100)
	n := 0
	for range Occurrences(ev, ids) {
		if n++; n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(102), ids.Next(), "only two ids were drawn")
}

func TestAddMonths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, date(2026, 2, 28, 7, 30), AddMonths(date(2026, 1, 31, 7, 30), 1))
	assert.Equal(t, date(2027, 1, 15, 0, 0), AddMonths(date(2026, 11, 15, 0, 0), 2))
	assert.Equal(t, date(2025, 11, 30, 0, 0), AddMonths(date(2026, 1, 30, 0, 0), -2))
	assert.Equal(t, date(2029, 2, 28, 0, 0), AddMonths(date(2028, 2, 29, 0, 0), 12))
}

func TestExpandAllWindowAndSeed(t *testing.T) {
	t.Parallel()

	now := date(2026, 3, 1, 0, 0)
	series := baseEvent(date(2026, 3, 1, 9, 0), time.Hour, core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 1, Until: date(2026, 3, 31, 9, 0)})
	// a stored id far in the future of now must still not collide
	single := core.Event{ID: now.UnixMilli() + 10, Title: "Dentist", Start: date(2026, 3, 3, 14, 0), End: date(2026, 3, 3, 15, 0)}
	outside := core.Event{ID: 3, Title: "Old", Start: date(2026, 2, 1, 14, 0), End: date(2026, 2, 1, 15, 0)}

	w := Days(date(2026, 3, 2, 12, 0), 3) // Mar 2, 3, 4
	exp := ExpandAll([]core.Event{series, single, outside}, w, now)

	require.Len(t, exp.Occurrences, 4)
	assert.Equal(t, date(2026, 3, 2, 9, 0), exp.Occurrences[0].Start)
	assert.Equal(t, date(2026, 3, 3, 9, 0), exp.Occurrences[1].Start)
	assert.Equal(t, "Dentist", exp.Occurrences[2].Title)
	assert.Equal(t, date(2026, 3, 4, 9, 0), exp.Occurrences[3].Start)
	assert.Empty(t, exp.Truncated)

	for _, o := range exp.Occurrences {
		if o.Index > 0 {
			assert.Greater(t, o.ID, single.ID)
		}
	}
}

func TestExpandAllSpanningEvent(t *testing.T) {
	t.Parallel()

	ev := core.Event{ID: 1, Start: date(2026, 3, 1, 22, 0), End: date(2026, 3, 2, 2, 0)}
	exp := ExpandAll([]core.Event{ev}, Day(date(2026, 3, 2, 0, 0)), date(2026, 3, 1, 0, 0))
	assert.Len(t, exp.Occurrences, 1, "overnight event overlaps the next day")
}

func TestExpandAllTruncates(t *testing.T) {
	t.Parallel()

	ev := baseEvent(date(2000, 1, 1, 9, 0), time.Hour, core.RepeatRule{Frequency: core.FrequencyDaily, Interval: 1, Until: date(2100, 1, 1, 0, 0)})
	exp := ExpandAll([]core.Event{ev}, Window{}, date(2026, 1, 1, 0, 0))

	assert.Len(t, exp.Occurrences, MaxOccurrences)
	assert.Equal(t, []int64{ev.ID}, exp.Truncated)
}

func TestExpandAllLongHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		freq core.Frequency
		from time.Time
		want time.Time
	}{
		{"daily", core.FrequencyDaily, date(1990, 1, 1, 9, 0), date(2026, 3, 2, 9, 0)},
		{"weekly", core.FrequencyWeekly, date(1900, 1, 1, 9, 0), date(2026, 3, 2, 9, 0)},
		{"monthly clamp", core.FrequencyMonthly, date(1800, 1, 31, 9, 0), date(2026, 3, 31, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev := baseEvent(tt.from, time.Hour, core.RepeatRule{Frequency: tt.freq, Interval: 1, Until: date(2100, 1, 1, 0, 0)})
			w := Window{From: tt.want.Add(-time.Hour), To: tt.want.Add(time.Hour)}
			exp := ExpandAll([]core.Event{ev}, w, date(2026, 3, 1, 0, 0))

			assert.Empty(t, exp.Truncated)
			require.Len(t, exp.Occurrences, 1)
			assert.Equal(t, tt.want, exp.Occurrences[0].Start)
			assert.Equal(t, ev.ID, exp.Occurrences[0].SeriesID)
			assert.Positive(t, exp.Occurrences[0].Index)
		})
	}
}
