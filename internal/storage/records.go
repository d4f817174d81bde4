package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theakshaypant/plan/internal/core"
)

// This file is the only place that knows the persisted JSON shapes. Dates
// are ISO-8601 strings and are revived into the store's location.

type eventRecord struct {
	ID             json.Number `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Start          string      `json:"start"`
	End            string      `json:"end"`
	Category       string      `json:"category"`
	Completed      bool        `json:"completed"`
	Repeat         string      `json:"repeat,omitempty"`
	RepeatUntil    string      `json:"repeatUntil,omitempty"`
	RepeatInterval int         `json:"repeatInterval,omitempty"`
	ExternalID     string      `json:"externalId,omitempty"`
}

type sessionRecord struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Duration float64     `json:"duration"` // seconds
	Date     string      `json:"date"`
	Type     string      `json:"type"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// parseTime accepts what browsers produce (toISOString) and what we write.
// Date-only values are midnight UTC, as `new Date("YYYY-MM-DD")` is.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func formatID(id int64) json.Number {
	return json.Number(strconv.FormatInt(id, 10))
}

// parseID reports false for ids that are missing, fractional or out of
// range. The browser's bulk add produced ids like 1760000000000.42.
func parseID(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if id, err := n.Int64(); err == nil {
		return id, id > 0
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toEventRecord(ev core.Event) eventRecord {
	rec := eventRecord{
		ID:          formatID(ev.ID),
		Title:       ev.Title,
		Description: ev.Description,
		Start:       formatTime(ev.Start),
		End:         formatTime(ev.End),
		Category:    ev.Category.String(),
		Completed:   ev.Completed,
		ExternalID:  ev.ExternalID,
	}
	if ev.Repeat.Frequency != core.FrequencyNone {
		rec.Repeat = ev.Repeat.Frequency.String()
		rec.RepeatInterval = ev.Repeat.Interval
		if !ev.Repeat.Until.IsZero() {
			rec.RepeatUntil = formatTime(ev.Repeat.Until)
		}
	}
	return rec
}

// event converts the record. idOK is false when the stored id cannot be
// used and the caller must assign a fresh one.
func (rec eventRecord) event(loc *time.Location) (ev core.Event, idOK bool, err error) {
	start, err := parseTime(rec.Start, loc)
	if err != nil {
		return core.Event{}, false, fmt.Errorf("start: %w", err)
	}
	end, err := parseTime(rec.End, loc)
	if err != nil {
		return core.Event{}, false, fmt.Errorf("end: %w", err)
	}

	ev = core.Event{
		Title:       rec.Title,
		Description: rec.Description,
		Start:       start,
		End:         end,
		Category:    core.ParseCategory(rec.Category),
		Completed:   rec.Completed,
		ExternalID:  rec.ExternalID,
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	// unknown frequencies degrade to a one-off event
	if freq, err := core.ParseFrequency(rec.Repeat); err == nil && freq != core.FrequencyNone {
		ev.Repeat = core.RepeatRule{Frequency: freq, Interval: rec.RepeatInterval}
		if ev.Repeat.Interval <= 0 {
			ev.Repeat.Interval = 1
		}
		if rec.RepeatUntil != "" {
			if ev.Repeat.Until, err = parseTime(rec.RepeatUntil, loc); err != nil {
				return core.Event{}, false, fmt.Errorf("repeatUntil: %w", err)
			}
		}
	}

	ev.ID, idOK = parseID(rec.ID)
	return ev, idOK, nil
}

func toSessionRecord(s core.Session) sessionRecord {
	return sessionRecord{
		ID:       formatID(s.ID),
		Name:     s.Name,
		Duration: s.Duration.Seconds(),
		Date:     formatTime(s.Date),
		Type:     string(s.Kind),
	}
}

func (rec sessionRecord) session(loc *time.Location) (core.Session, bool, error) {
	date, err := parseTime(rec.Date, loc)
	if err != nil {
		return core.Session{}, false, fmt.Errorf("date: %w", err)
	}
	id, ok := parseID(rec.ID)
	return core.Session{
		ID:       id,
		Name:     rec.Name,
		Duration: time.Duration(rec.Duration * float64(time.Second)),
		Date:     date,
		Kind:     core.ParseSessionKind(rec.Type),
	}, ok, nil
}

// revived is the result of reading one persisted array.
type revived struct {
	events   []core.Event
	sessions []core.Session
	// indexes (into events / sessions) whose ids need reassigning
	badEventIDs   []int
	badSessionIDs []int
	// entries that were neither shape or failed to parse
	skipped []string
}

// revive decodes a persisted array, sorting entries by field inspection:
// objects with start and end are events, objects with duration and type
// are work sessions. Anything else is skipped and reported.
func revive(raw json.RawMessage, loc *time.Location) (revived, error) {
	var out revived

	raw = unwrapString(raw)
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return out, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out, fmt.Errorf("expected an array: %w", err)
	}

	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			out.skipped = append(out.skipped, fmt.Sprintf("entry %d: not an object", i))
			continue
		}

		switch {
		case has(fields, "start", "end"):
			var rec eventRecord
			if err := json.Unmarshal(entry, &rec); err != nil {
				out.skipped = append(out.skipped, fmt.Sprintf("entry %d: %v", i, err))
				continue
			}
			ev, idOK, err := rec.event(loc)
			if err != nil {
				out.skipped = append(out.skipped, fmt.Sprintf("entry %d: %v", i, err))
				continue
			}
			if !idOK {
				out.badEventIDs = append(out.badEventIDs, len(out.events))
			}
			out.events = append(out.events, ev)

		case has(fields, "duration", "type"):
			var rec sessionRecord
			if err := json.Unmarshal(entry, &rec); err != nil {
				out.skipped = append(out.skipped, fmt.Sprintf("entry %d: %v", i, err))
				continue
			}
			s, idOK, err := rec.session(loc)
			if err != nil {
				out.skipped = append(out.skipped, fmt.Sprintf("entry %d: %v", i, err))
				continue
			}
			if !idOK {
				out.badSessionIDs = append(out.badSessionIDs, len(out.sessions))
			}
			out.sessions = append(out.sessions, s)

		default:
			out.skipped = append(out.skipped, fmt.Sprintf("entry %d: unrecognised shape", i))
		}
	}
	return out, nil
}

func has(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

// unwrapString handles localStorage dumps, where every value is a JSON
// string holding JSON.
func unwrapString(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw
	}
	inner := strings.TrimSpace(s)
	if strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "\"") || inner == "null" {
		return json.RawMessage(inner)
	}
	return raw
}
