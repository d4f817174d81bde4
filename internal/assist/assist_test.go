package assist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/plan/internal/core"
)

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig *struct {
		ResponseMimeType string `json:"responseMimeType"`
		ResponseSchema   *struct {
			Type  string `json:"type"`
			Items *struct {
				Type string `json:"type"`
			} `json:"items"`
		} `json:"responseSchema"`
	} `json:"generationConfig"`
}

func (r geminiRequest) prompt() string {
	if len(r.Contents) == 0 || len(r.Contents[0].Parts) == 0 {
		return ""
	}
	return r.Contents[0].Parts[0].Text
}

// fakeGemini replies with reply and records the last request.
func fakeGemini(t *testing.T, reply string) (*Client, *geminiRequest, *atomic.Int32) {
	t.Helper()

	var (
		last  geminiRequest
		calls atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultModel+":generateContent") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": reply}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{APIKey: "test-key", Endpoint: srv.URL + "/"})
	require.NoError(t, err)
	return c, &last, &calls
}

var today = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	c, req, _ := fakeGemini(t, `{"title":"Dentist","startDate":"2026-10-19","startTime":"15:00","endDate":"2026-10-19","endTime":"16:00","category":"personal"}`)

	d, err := c.ParseEvent(context.Background(), "dentist tomorrow at 3pm", today)
	require.NoError(t, err)
	assert.Equal(t, core.EventDraft{
		Title:     "Dentist",
		StartDate: "2026-10-19",
		StartTime: "15:00",
		EndDate:   "2026-10-19",
		EndTime:   "16:00",
		Category:  "personal",
	}, d)

	assert.Contains(t, req.prompt(), "dentist tomorrow at 3pm")
	assert.Contains(t, req.prompt(), "2026-10-18")
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	require.NotNil(t, req.GenerationConfig.ResponseSchema)
	assert.Equal(t, "OBJECT", req.GenerationConfig.ResponseSchema.Type)
}

func TestParseEventFencedReply(t *testing.T) {
	t.Parallel()

	c, _, _ := fakeGemini(t, "```json\n{\"title\":\"Run\",\"startDate\":\"2026-10-18\",\"startTime\":\"07:00\",\"endDate\":\"2026-10-18\",\"endTime\":\"08:00\",\"category\":\"fitness\"}\n```")

	d, err := c.ParseEvent(context.Background(), "run at 7", today)
	require.NoError(t, err)
	assert.Equal(t, "Run", d.Title)
	assert.Equal(t, "fitness", d.Category)
}

func TestParseEventUnparseable(t *testing.T) {
	t.Parallel()

	c, _, _ := fakeGemini(t, "sorry, I can't help with that")

	_, err := c.ParseEvent(context.Background(), "???", today)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParseEventEmptyTextSkipsCall(t *testing.T) {
	t.Parallel()

	c, _, calls := fakeGemini(t, "{}")

	_, err := c.ParseEvent(context.Background(), "   ", today)
	assert.ErrorIs(t, err, ErrUnparseable)
	assert.Zero(t, calls.Load())
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	c, req, _ := fakeGemini(t, `[
		{"title":"Standup","startDate":"2026-10-19","startTime":"09:00","endDate":"2026-10-19","endTime":"09:15","category":"meeting"},
		{"title":"Gym","startDate":"2026-10-19","startTime":"18:00","endDate":"2026-10-19","endTime":"19:00","category":"fitness"}
	]`)

	drafts, err := c.ParseSchedule(context.Background(), "standup at 9 for 15 min, gym at 6pm", today)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Standup", drafts[0].Title)
	assert.Equal(t, "Gym", drafts[1].Title)

	require.NotNil(t, req.GenerationConfig)
	require.NotNil(t, req.GenerationConfig.ResponseSchema)
	assert.Equal(t, "ARRAY", req.GenerationConfig.ResponseSchema.Type)
	require.NotNil(t, req.GenerationConfig.ResponseSchema.Items)
	assert.Equal(t, "OBJECT", req.GenerationConfig.ResponseSchema.Items.Type)
}

func TestParseScheduleEmpty(t *testing.T) {
	t.Parallel()

	c, _, _ := fakeGemini(t, `[]`)

	_, err := c.ParseSchedule(context.Background(), "nothing really", today)
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestBriefing(t *testing.T) {
	t.Parallel()

	c, req, _ := fakeGemini(t, "## Good morning!\nA calm day.")

	occ := []core.Occurrence{
		core.Single(core.Event{
			ID:       1,
			Title:    "Standup",
			Start:    time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC),
			Category: core.CategoryMeeting,
		}),
	}

	out, err := c.Briefing(context.Background(), today, occ)
	require.NoError(t, err)
	assert.Equal(t, "## Good morning!\nA calm day.", out)
	assert.Contains(t, req.prompt(), `- "Standup" (09:00 - 09:15), Category: Meeting`)
	assert.Nil(t, req.GenerationConfig)
}

func TestBriefingEmptyDaySkipsCall(t *testing.T) {
	t.Parallel()

	c, _, calls := fakeGemini(t, "unused")

	out, err := c.Briefing(context.Background(), today, nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyDayBriefing, out)
	assert.Zero(t, calls.Load())
}

func TestRequestError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"boom"}}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{APIKey: "test-key", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	_, err = c.ParseEvent(context.Background(), "lunch at noon", today)
	assert.ErrorContains(t, err, "gemini request failed")
	assert.NotErrorIs(t, err, ErrUnparseable)
}

func TestToEvents(t *testing.T) {
	t.Parallel()

	drafts := []core.EventDraft{
		{Title: "Lunch", StartDate: "2026-10-18", StartTime: "12:00", EndDate: "2026-10-18", EndTime: "13:00", Category: "personal"},
		{Title: "Broken", StartDate: "tomorrow", StartTime: "12:00", EndDate: "2026-10-18", EndTime: "13:00"},
		{Title: "Backwards", StartDate: "2026-10-18", StartTime: "14:00", EndDate: "2026-10-18", EndTime: "13:00"},
	}

	events, err := ToEvents(drafts, time.UTC, FromTextDescription)
	require.Len(t, events, 1)
	assert.Equal(t, "Lunch", events[0].Title)
	assert.Equal(t, FromTextDescription, events[0].Description)
	assert.Equal(t, core.CategoryPersonal, events[0].Category)
	assert.Zero(t, events[0].ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidDraft)
	assert.ErrorContains(t, err, "event 2 (Broken)")
	assert.ErrorContains(t, err, "event 3 (Backwards)")
}

func TestStripFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripFence("```\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("  {\"a\":1}\n"))
}
