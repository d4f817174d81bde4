package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTableIsComplete(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, c := range Categories() {
		info := c.Info()
		assert.NotEmpty(t, info.Key, "category %d has no key", c)
		assert.NotEmpty(t, info.Name, "category %d has no name", c)
		assert.NotEmpty(t, info.Color, "category %d has no color", c)
		assert.False(t, seen[info.Key], "duplicate key %q", info.Key)
		seen[info.Key] = true
	}
	assert.Len(t, Categories(), 6)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Category
	}{
		{"work", CategoryWork},
		{" Fitness ", CategoryFitness},
		{"MEETING", CategoryMeeting},
		{"education", CategoryEducation},
		{"personal", CategoryPersonal},
		{"holiday", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategory(tt.in), "input %q", tt.in)
	}

	_, ok := LookupCategory("holiday")
	assert.False(t, ok)
}

func TestCategoryJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		C Category `json:"c"`
	}{CategoryMeeting})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"meeting"}`, string(b))

	var out struct {
		C Category `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"c":"nonsense"}`), &out))
	assert.Equal(t, CategoryOther, out.C)
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	f, err := ParseFrequency("Weekly")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	f, err = ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, FrequencyNone, f)

	_, err = ParseFrequency("fortnightly")
	assert.True(t, errors.Is(err, ErrInvalidRepeat))
}

func TestRepeatRule(t *testing.T) {
	t.Parallel()

	until := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)

	assert.False(t, RepeatRule{}.Active())
	assert.False(t, RepeatRule{Frequency: FrequencyDaily}.Active(), "no until")
	assert.False(t, RepeatRule{Frequency: FrequencyNone, Until: until}.Active())
	assert.True(t, RepeatRule{Frequency: FrequencyDaily, Until: until}.Active())

	assert.Equal(t, 1, RepeatRule{Interval: 0}.Step())
	assert.Equal(t, 1, RepeatRule{Interval: -4}.Step())
	assert.Equal(t, 3, RepeatRule{Interval: 3}.Step())

	assert.Equal(t, "every 2 weeks until Mar 3, 2026",
		RepeatRule{Frequency: FrequencyWeekly, Interval: 2, Until: until}.Describe())
	assert.Equal(t, "every day (no end date)", RepeatRule{Frequency: FrequencyCustom}.Describe())
	assert.Empty(t, RepeatRule{}.Describe())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	assert.NoError(t, Event{Start: start, End: start}.Validate(), "zero duration is allowed")
	assert.NoError(t, Event{Start: start, End: start.Add(time.Hour)}.Validate())
	assert.ErrorIs(t, Event{Start: start, End: start.Add(-time.Minute)}.Validate(), ErrEndBeforeStart)
}

func TestOccurrenceEditable(t *testing.T) {
	t.Parallel()

	base := Event{ID: 42}
	assert.True(t, Single(base).Editable())
	assert.False(t, Occurrence{Event: Event{ID: 99}, SeriesID: 42, Index: 3}.Editable())
}

func TestDraftToEvent(t *testing.T) {
	t.Parallel()

	d := EventDraft{
		Title:     "  Project sync ",
		StartDate: "2026-10-21",
		StartTime: "15:00",
		EndDate:   "2026-10-21",
		EndTime:   "16:30",
		Category:  "meeting",
	}
	ev, err := d.ToEvent(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Project sync", ev.Title)
	assert.Equal(t, time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, 90*time.Minute, ev.Duration())
	assert.Equal(t, CategoryMeeting, ev.Category)
	assert.Zero(t, ev.ID)

	d.Category = "party"
	ev, err = d.ToEvent(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, ev.Category)
}

func TestDraftToEventErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft EventDraft
	}{
		{"bad start", EventDraft{StartDate: "21/10/2026", StartTime: "15:00", EndDate: "2026-10-21", EndTime: "16:00"}},
		{"bad end", EventDraft{StartDate: "2026-10-21", StartTime: "15:00", EndDate: "2026-10-21", EndTime: "4pm"}},
		{"end before start", EventDraft{StartDate: "2026-10-21", StartTime: "15:00", EndDate: "2026-10-21", EndTime: "14:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.ToEvent(time.UTC)
			assert.ErrorIs(t, err, ErrInvalidDraft)
		})
	}
}
