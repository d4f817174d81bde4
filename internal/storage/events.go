package storage

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
)

// EventStore keeps canonical events under KeyEvents.
type EventStore struct {
	kv     *KV
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

var _ core.Storage = (*EventStore)(nil)

// Option configures a store.
type Option func(*options)

type options struct {
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// WithLocation sets the zone dates are revived into. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithLogger sets the logger used to report repairs.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides time.Now for id assignment.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{loc: time.Local, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewEventStore returns a store backed by kv.
func NewEventStore(kv *KV, opts ...Option) *EventStore {
	o := buildOptions(opts)
	return &EventStore{kv: kv, loc: o.loc, logger: o.logger, now: o.now}
}

// load revives the stored events. Entries with unusable ids get fresh ones
// and the repaired list is written back so ids stay stable.
func (s *EventStore) load() ([]core.Event, error) {
	raw, ok := s.kv.Raw(KeyEvents)
	if !ok {
		return nil, nil
	}
	r, err := revive(raw, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	for _, msg := range r.skipped {
		s.logger.Warn("skipping stored event", zap.String("reason", msg))
	}
	if len(r.sessions) > 0 {
		s.logger.Warn("ignoring sessions stored with events", zap.Int("count", len(r.sessions)))
	}

	if n := assignEventIDs(r.events, r.badEventIDs, s.now()); n > 0 {
		s.logger.Info("reassigned event ids", zap.Int("count", n))
		if err := s.save(r.events); err != nil {
			return nil, err
		}
	}
	return r.events, nil
}

func (s *EventStore) save(events []core.Event) error {
	recs := make([]eventRecord, len(events))
	for i, ev := range events {
		recs[i] = toEventRecord(ev)
	}
	if err := s.kv.Set(KeyEvents, recs); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	return nil
}

// ListEvents returns all canonical events sorted by start.
func (s *EventStore) ListEvents(ctx context.Context) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(events, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
	return events, nil
}

// UpsertEvent validates ev, then replaces the stored event with the same ID
// or inserts it. A zero ID gets a fresh one.
func (s *EventStore) UpsertEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return core.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return core.Event{}, err
	}

	if ev.ID != 0 {
		if i := indexOf(events, ev.ID); i >= 0 {
			events[i] = ev
			return ev, s.save(events)
		}
	} else {
		ev.ID = nextID(events, s.now())
	}
	events = append(events, ev)
	return ev, s.save(events)
}

// DeleteEvent removes the event with id.
func (s *EventStore) DeleteEvent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(events, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	return s.save(slices.Delete(events, i, i+1))
}

// SetCompleted sets the completion flag of the event with id.
func (s *EventStore) SetCompleted(ctx context.Context, id int64, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(events, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	events[i].Completed = done
	return s.save(events)
}

// SyncEvents upserts imported events by ExternalID. Local ids and the
// completion flag of existing events are kept.
func (s *EventStore) SyncEvents(ctx context.Context, incoming []core.Event) (core.SyncResult, error) {
	var res core.SyncResult

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return res, err
	}

	byExternal := make(map[string]int, len(events))
	for i, ev := range events {
		if ev.ExternalID != "" {
			byExternal[ev.ExternalID] = i
		}
	}

	now := s.now()
	for _, ev := range incoming {
		if err := ev.Validate(); err != nil {
			s.logger.Warn("skipping invalid import", zap.String("external_id", ev.ExternalID), zap.Error(err))
			continue
		}
		if ev.ExternalID == "" {
			ev.ID = nextID(events, now)
			events = append(events, ev)
			res.Inserted++
			continue
		}
		if i, ok := byExternal[ev.ExternalID]; ok {
			ev.ID = events[i].ID
			ev.Completed = events[i].Completed
			events[i] = ev
			res.Updated++
			continue
		}
		ev.ID = nextID(events, now)
		byExternal[ev.ExternalID] = len(events)
		events = append(events, ev)
		res.Inserted++
	}

	if res.Inserted+res.Updated == 0 {
		return res, nil
	}
	return res, s.save(events)
}

// Lookup finds an event by id or by a case-insensitive title prefix.
// Ambiguous prefixes are an error.
func (s *EventStore) Lookup(ctx context.Context, ref string) (core.Event, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return core.Event{}, err
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); err == nil {
		if i := indexOf(events, id); i >= 0 {
			return events[i], nil
		}
	}

	prefix := strings.ToLower(strings.TrimSpace(ref))
	var matches []core.Event
	for _, ev := range events {
		if prefix != "" && strings.HasPrefix(strings.ToLower(ev.Title), prefix) {
			matches = append(matches, ev)
		}
	}
	switch len(matches) {
	case 0:
		return core.Event{}, fmt.Errorf("%w: %q", core.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return core.Event{}, fmt.Errorf("%q matches %d events, use the id", ref, len(matches))
	}
}

func indexOf(events []core.Event, id int64) int {
	return slices.IndexFunc(events, func(ev core.Event) bool { return ev.ID == id })
}

// nextID returns an id above both now in Unix milliseconds and every id in
// use, matching the browser's Date.now() ids.
func nextID(events []core.Event, now time.Time) int64 {
	id := now.UnixMilli()
	for _, ev := range events {
		if ev.ID >= id {
			id = ev.ID + 1
		}
	}
	return id
}

// assignEventIDs gives fresh ids to the entries at bad and to later
// duplicates of an id already seen. It returns how many it changed.
func assignEventIDs(events []core.Event, bad []int, now time.Time) int {
	fix := make(map[int]bool, len(bad))
	for _, i := range bad {
		fix[i] = true
	}
	seen := make(map[int64]bool, len(events))
	for i, ev := range events {
		if fix[i] {
			continue
		}
		if seen[ev.ID] {
			fix[i] = true
			continue
		}
		seen[ev.ID] = true
	}

	n := 0
	for i := range events {
		if !fix[i] {
			continue
		}
		events[i].ID = 0
		events[i].ID = nextID(events, now)
		n++
	}
	return n
}
