package storage

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/plan/internal/core"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newKV(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(filepath.Join(t.TempDir(), "plan", "data.json"))
	require.NoError(t, err)
	return kv
}

func opts() []Option {
	return []Option{WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow })}
}

func TestKVRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newKV(t)
	ok, err := kv.Get("missing", new(string))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("greeting", "hello"))

	info, err := os.Stat(kv.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(kv.Path())
	require.NoError(t, err)
	var got string
	ok, err = reopened.Get("greeting", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", got)

	entries, err := os.ReadDir(filepath.Dir(kv.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestEventStoreCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewEventStore(newKV(t), opts()...)

	ev := core.Event{
		Title:    "Standup",
		Start:    time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC),
		Category: core.CategoryMeeting,
		Repeat: core.RepeatRule{
			Frequency: core.FrequencyWeekly,
			Interval:  1,
			Until:     time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	saved, err := store.UpsertEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), saved.ID)

	second, err := store.UpsertEvent(ctx, core.Event{Title: "Lunch", Start: ev.Start.Add(-time.Hour), End: ev.Start})
	require.NoError(t, err)
	assert.Equal(t, saved.ID+1, second.ID, "ids stay unique within the same millisecond")

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Lunch", events[0].Title, "sorted by start")
	assert.Equal(t, saved, events[1])

	saved.Title = "Daily standup"
	_, err = store.UpsertEvent(ctx, saved)
	require.NoError(t, err)

	require.NoError(t, store.SetCompleted(ctx, saved.ID, true))
	events, err = store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Daily standup", events[1].Title)
	assert.True(t, events[1].Completed)

	require.NoError(t, store.DeleteEvent(ctx, second.ID))
	assert.ErrorIs(t, store.DeleteEvent(ctx, second.ID), core.ErrNotFound)
	assert.ErrorIs(t, store.SetCompleted(ctx, 12345, true), core.ErrNotFound)

	events, err = store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUpsertRejectsInvertedEvent(t *testing.T) {
	t.Parallel()

	store := NewEventStore(newKV(t), opts()...)
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	_, err := store.UpsertEvent(context.Background(), core.Event{Title: "x", Start: start, End: start.Add(-time.Minute)})
	assert.ErrorIs(t, err, core.ErrEndBeforeStart)
}

func TestSyncEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewEventStore(newKV(t), opts()...)
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	res, err := store.SyncEvents(ctx, []core.Event{
		{Title: "Review", Start: start, End: start.Add(time.Hour), ExternalID: "g-1"},
		{Title: "Retro", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour), ExternalID: "g-2"},
		{Title: "Broken", Start: start, End: start.Add(-time.Hour), ExternalID: "g-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.SyncResult{Inserted: 2}, res)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SetCompleted(ctx, events[0].ID, true))

	res, err = store.SyncEvents(ctx, []core.Event{
		{Title: "Design review", Start: start, End: start.Add(time.Hour), ExternalID: "g-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.SyncResult{Updated: 1}, res)

	updated, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, events[0].ID, updated[0].ID)
	assert.Equal(t, "Design review", updated[0].Title)
	assert.True(t, updated[0].Completed, "completion survives a resync")
}

func TestLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewEventStore(newKV(t), opts()...)
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	a, err := store.UpsertEvent(ctx, core.Event{Title: "Gym", Start: start, End: start})
	require.NoError(t, err)
	_, err = store.UpsertEvent(ctx, core.Event{Title: "Groceries", Start: start, End: start})
	require.NoError(t, err)

	got, err := store.Lookup(ctx, "gy")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = store.Lookup(ctx, strconv.FormatInt(a.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, "Gym", got.Title)

	_, err = store.Lookup(ctx, "g")
	assert.ErrorContains(t, err, "matches 2 events")
	_, err = store.Lookup(ctx, "dentist")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

const browserEvents = `[
  {"id": 1760000000000, "title": "Sprint planning", "description": "Q4", "start": "2026-10-19T07:00:00.000Z", "end": "2026-10-19T08:00:00.000Z", "category": "meeting", "completed": true},
  {"id": 1760000000001.734, "title": "Bulk 1", "start": "2026-10-20T09:00:00.000Z", "end": "2026-10-20T10:00:00.000Z", "category": "work"},
  {"id": 1760000000000, "title": "Duplicate id", "start": "2026-10-21T09:00:00.000Z", "end": "2026-10-21T10:00:00.000Z"},
  {"id": 5, "title": "Run", "start": "2026-10-22T06:00:00.000Z", "end": "2026-10-22T06:45:00.000Z", "category": "sport",
   "repeat": "weekly", "repeatUntil": "2026-12-01T00:00:00.000Z"},
  {"id": 6, "title": "no dates"},
  42
]`

func TestReviveEvents(t *testing.T) {
	t.Parallel()

	kv := newKV(t)
	require.NoError(t, kv.Set(KeyEvents, json.RawMessage(browserEvents)))

	store := NewEventStore(kv, opts()...)
	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 4)

	byTitle := map[string]core.Event{}
	ids := map[int64]bool{}
	for _, ev := range events {
		byTitle[ev.Title] = ev
		assert.False(t, ids[ev.ID], "duplicate id %d", ev.ID)
		ids[ev.ID] = true
	}

	planning := byTitle["Sprint planning"]
	assert.Equal(t, int64(1760000000000), planning.ID)
	assert.Equal(t, core.CategoryMeeting, planning.Category)
	assert.True(t, planning.Completed)
	assert.Equal(t, time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC), planning.Start)

	assert.Equal(t, core.CategoryWork, byTitle["Bulk 1"].Category)
	assert.False(t, byTitle["Bulk 1"].Completed, "missing completed is false")
	assert.Equal(t, core.CategoryOther, byTitle["Duplicate id"].Category, "missing category is other")

	run := byTitle["Run"]
	assert.Equal(t, core.CategoryOther, run.Category, "unknown category is other")
	assert.Equal(t, core.FrequencyWeekly, run.Repeat.Frequency)
	assert.Equal(t, 1, run.Repeat.Interval)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), run.Repeat.Until)

	// repairs are written back so ids are stable across loads
	again, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, events, again)
}

func TestImportLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := newKV(t)
	store := NewEventStore(kv, opts()...)
	start := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	existing, err := store.UpsertEvent(ctx, core.Event{ID: 5, Title: "Existing", Start: start, End: start})
	require.NoError(t, err)

	sessions := `[{"id": 1, "name": "Thesis", "duration": 1500, "date": "2026-10-17T10:00:00.000Z", "type": "Pomodoro"},
	              {"id": 2.5, "name": "Reading", "duration": 600, "date": "2026-10-18T10:00:00.000Z", "type": "Kronometre"}]`
	dump := map[string]string{
		KeyEvents:           browserEvents,
		KeySessions:         sessions,
		KeyCurrentDate:      `"2026-10-21T00:00:00.000Z"`,
		KeyView:             `"week"`,
		KeyActiveCategories: `["work","meeting"]`,
		"study-subjects":    `[]`,
	}
	b, err := json.Marshal(dump)
	require.NoError(t, err)

	res, err := ImportLocalStorage(ctx, strings.NewReader(string(b)), kv, opts()...)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Events)
	assert.Equal(t, 2, res.Sessions)
	assert.Equal(t, 2, res.Skipped)
	// fractional event id, duplicate event id, id 5 taken, fractional session id
	assert.Equal(t, 4, res.Reassigned)
	assert.True(t, res.View)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 5)
	ids := map[int64]bool{}
	for _, ev := range events {
		assert.False(t, ids[ev.ID])
		ids[ev.ID] = true
	}
	assert.Equal(t, existing, events[0])

	logged, err := NewSessionStore(kv, opts()...).List(ctx)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, "Reading", logged[0].Name, "newest first")
	assert.Equal(t, core.SessionStopwatch, logged[0].Kind)
	assert.Equal(t, 25*time.Minute, logged[1].Duration)

	vs := LoadView(kv, time.UTC)
	assert.Equal(t, "week", vs.View)
	assert.Equal(t, []string{"work", "meeting"}, vs.Categories)
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), vs.Date)
}

func TestImportRejectsNonObject(t *testing.T) {
	t.Parallel()

	_, err := ImportLocalStorage(context.Background(), strings.NewReader(`[1,2]`), newKV(t))
	assert.Error(t, err)
}

func TestViewStateRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newKV(t)
	assert.Equal(t, ViewState{}, LoadView(kv, time.UTC))

	vs := ViewState{Date: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), View: "month", Categories: []string{}}
	require.NoError(t, SaveView(kv, vs))
	assert.Equal(t, vs, LoadView(kv, time.UTC))
}

func TestSessionStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSessionStore(newKV(t), opts()...)

	require.NoError(t, s.Add(ctx,
		core.Session{Name: "a", Duration: time.Minute, Date: fixedNow.Add(-time.Hour), Kind: core.SessionPomodoro},
		core.Session{Name: "b", Duration: time.Minute, Date: fixedNow, Kind: core.SessionSmartFocus},
	))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.NotEqual(t, list[0].ID, list[1].ID)

	require.NoError(t, s.Clear(ctx))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     json.Number
		want   int64
		wantOK bool
	}{
		{"1760000000000", 1760000000000, true},
		{"1760000000000.0", 1760000000000, true},
		{"1760000000000.42", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
		{"", 0, false},
		{"9223372036854775807", math.MaxInt64, true},
		{"9223372036854775808", 0, false},
		{"9.223372036854775808e18", 0, false},
		{"1e19", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.in)
		assert.Equal(t, tt.wantOK, ok, "id %q", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "id %q", tt.in)
		}
	}
}
