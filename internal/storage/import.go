package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
)

// ImportResult summarises a localStorage import.
type ImportResult struct {
	Events   int
	Sessions int
	// Entries that got a fresh id because theirs was fractional, missing
	// or already taken
	Reassigned int
	Skipped    int
	View       bool
}

// ImportLocalStorage merges a browser localStorage dump (a JSON object of
// key to string-encoded JSON, as produced by JSON.stringify(localStorage))
// into kv. Events and sessions are appended; view state is replaced.
func ImportLocalStorage(ctx context.Context, r io.Reader, kv *KV, opts ...Option) (ImportResult, error) {
	var res ImportResult
	o := buildOptions(opts)

	var dump map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return res, fmt.Errorf("failed to parse localStorage dump: %w", err)
	}

	var found revived
	for _, key := range []string{KeyEvents, KeySessions} {
		raw, ok := dump[key]
		if !ok {
			continue
		}
		rv, err := revive(raw, o.loc)
		if err != nil {
			return res, fmt.Errorf("%s: %w", key, err)
		}
		for _, msg := range rv.skipped {
			o.logger.Warn("skipping entry", zap.String("key", key), zap.String("reason", msg))
		}
		res.Skipped += len(rv.skipped)

		for _, i := range rv.badEventIDs {
			found.badEventIDs = append(found.badEventIDs, i+len(found.events))
		}
		for _, i := range rv.badSessionIDs {
			found.badSessionIDs = append(found.badSessionIDs, i+len(found.sessions))
		}
		found.events = append(found.events, rv.events...)
		found.sessions = append(found.sessions, rv.sessions...)
	}

	if len(found.events) > 0 {
		n, err := NewEventStore(kv, opts...).merge(found.events, found.badEventIDs)
		if err != nil {
			return res, err
		}
		res.Events = len(found.events)
		res.Reassigned += n
	}

	if len(found.sessions) > 0 {
		bad := make(map[int]bool, len(found.badSessionIDs))
		for _, i := range found.badSessionIDs {
			bad[i] = true
		}
		for i := range found.sessions {
			if bad[i] {
				found.sessions[i].ID = 0
				res.Reassigned++
			}
		}
		if err := NewSessionStore(kv, opts...).Add(ctx, found.sessions...); err != nil {
			return res, err
		}
		res.Sessions = len(found.sessions)
	}

	get := func(key string) (json.RawMessage, bool) {
		raw, ok := dump[key]
		return raw, ok
	}
	if vs := viewFrom(get, o.loc); !vs.Date.IsZero() || vs.View != "" || vs.Categories != nil {
		if err := SaveView(kv, vs); err != nil {
			return res, err
		}
		res.View = true
	}

	o.logger.Info("imported localStorage dump",
		zap.Int("events", res.Events),
		zap.Int("sessions", res.Sessions),
		zap.Int("reassigned", res.Reassigned),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// merge appends incoming events. Entries listed in bad, and entries whose id
// is already in use, get fresh ids. It returns how many were reassigned.
func (s *EventStore) merge(incoming []core.Event, bad []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return 0, err
	}

	fix := make(map[int]bool, len(bad))
	for _, i := range bad {
		fix[i] = true
	}
	used := make(map[int64]bool, len(events)+len(incoming))
	for _, ev := range events {
		used[ev.ID] = true
	}

	now := s.now()
	fresh := func() int64 {
		id := now.UnixMilli()
		for u := range used {
			if u >= id {
				id = u + 1
			}
		}
		return id
	}

	n := 0
	for i, ev := range incoming {
		if fix[i] || used[ev.ID] {
			ev.ID = fresh()
			n++
		}
		used[ev.ID] = true
		events = append(events, ev)
	}
	return n, s.save(events)
}
