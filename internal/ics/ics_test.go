package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/plan/internal/core"
)

var (
	stamp   = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	horizon = time.Date(2027, 10, 18, 0, 0, 0, 0, time.UTC)
)

func TestUID(t *testing.T) {
	t.Parallel()

	a := UID(core.Event{ID: 42})
	assert.Equal(t, a, UID(core.Event{ID: 42, Title: "renamed"}))
	assert.NotEqual(t, a, UID(core.Event{ID: 43}))
	assert.True(t, strings.HasSuffix(a, "@plan"))

	assert.Equal(t, "abc@google.com", UID(core.Event{ID: 42, ExternalID: "abc@google.com"}))
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	events := []core.Event{
		{
			ID:          1,
			Title:       "Standup, daily",
			Description: "Sync; then plan",
			Start:       time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			End:         time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC),
			Category:    core.CategoryMeeting,
			Repeat: core.RepeatRule{
				Frequency: core.FrequencyWeekly,
				Interval:  2,
				Until:     time.Date(2026, 12, 28, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			ID:        2,
			Title:     "Run",
			Start:     time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC),
			Category:  core.CategoryFitness,
			Completed: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, events, stamp))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "CATEGORIES:MEETING")
	assert.Contains(t, out, "FREQ=WEEKLY")
	assert.Contains(t, out, "X-PLAN-COMPLETED:TRUE")

	got, err := Import(strings.NewReader(out), ImportOptions{Location: time.UTC, Horizon: horizon})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, UID(events[0]), got[0].ExternalID)
	assert.Zero(t, got[0].ID)
	assert.Equal(t, "Standup, daily", got[0].Title)
	assert.Equal(t, "Sync; then plan", got[0].Description)
	assert.True(t, events[0].Start.Equal(got[0].Start))
	assert.True(t, events[0].End.Equal(got[0].End))
	assert.Equal(t, core.CategoryMeeting, got[0].Category)
	assert.Equal(t, core.FrequencyWeekly, got[0].Repeat.Frequency)
	assert.Equal(t, 2, got[0].Repeat.Interval)
	assert.True(t, events[0].Repeat.Until.Equal(got[0].Repeat.Until))
	assert.False(t, got[0].Completed)

	assert.Equal(t, core.CategoryFitness, got[1].Category)
	assert.True(t, got[1].Completed)
	assert.False(t, got[1].Repeat.Active())
}

const foreign = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example//EN
BEGIN:VEVENT
UID:allday@example.com
DTSTAMP:20261018T120000Z
DTSTART;VALUE=DATE:20261021
DTEND;VALUE=DATE:20261022
SUMMARY:Conference
CATEGORIES:Travel,Education
END:VEVENT
BEGIN:VEVENT
UID:count@example.com
DTSTAMP:20261018T120000Z
DTSTART:20261019T100000Z
DTEND:20261019T110000Z
SUMMARY:Lesson
RRULE:FREQ=DAILY;COUNT=3
END:VEVENT
BEGIN:VEVENT
UID:count@example.com
RECURRENCE-ID:20261020T100000Z
DTSTAMP:20261018T120000Z
DTSTART:20261020T120000Z
DTEND:20261020T130000Z
SUMMARY:Lesson (moved)
END:VEVENT
BEGIN:VEVENT
UID:cancelled@example.com
DTSTAMP:20261018T120000Z
DTSTART:20261019T100000Z
DTEND:20261019T110000Z
STATUS:CANCELLED
SUMMARY:Dropped
END:VEVENT
BEGIN:VEVENT
UID:nothing@example.com
DTSTAMP:20261018T120000Z
DTSTART:20261019T150000Z
END:VEVENT
END:VCALENDAR
`

func TestImportForeignCalendar(t *testing.T) {
	t.Parallel()

	got, err := Import(strings.NewReader(strings.ReplaceAll(foreign, "\n", "\r\n")), ImportOptions{
		Location:        time.UTC,
		Horizon:         horizon,
		DefaultCategory: core.CategoryWork,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	conf := got[0]
	assert.Equal(t, "allday@example.com", conf.ExternalID)
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), conf.Start)
	assert.Equal(t, time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC), conf.End)
	assert.Equal(t, core.CategoryEducation, conf.Category)

	lesson := got[1]
	assert.Equal(t, "Lesson", lesson.Title)
	assert.Equal(t, core.CategoryWork, lesson.Category)
	assert.Equal(t, core.FrequencyDaily, lesson.Repeat.Frequency)
	assert.True(t, time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC).Equal(lesson.Repeat.Until))

	untitled := got[2]
	assert.Equal(t, "(No title)", untitled.Title)
	assert.Equal(t, untitled.Start, untitled.End)
}

func TestImportExcludeAllDay(t *testing.T) {
	t.Parallel()

	got, err := Import(strings.NewReader(strings.ReplaceAll(foreign, "\n", "\r\n")), ImportOptions{
		Location:      time.UTC,
		Horizon:       horizon,
		ExcludeAllDay: true,
	})
	require.NoError(t, err)
	for _, ev := range got {
		assert.NotEqual(t, "allday@example.com", ev.ExternalID)
	}
}

func TestImportLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	got, err := Import(strings.NewReader(strings.ReplaceAll(foreign, "\n", "\r\n")), ImportOptions{
		Location: loc,
		Horizon:  horizon,
	})
	require.NoError(t, err)
	require.NotEmpty(t, got)

	// All-day dates stay on their calendar day
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, loc), got[0].Start)
	// Timed events move to local wall-clock
	assert.Equal(t, 13, got[1].Start.Hour())
}

func TestImportGarbage(t *testing.T) {
	t.Parallel()

	_, err := Import(strings.NewReader("BEGIN:VEVENT\r\nEND:VEVENT\r\n"), ImportOptions{})
	assert.Error(t, err)
}
