package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
)

// SessionStore keeps the work-session log under KeySessions.
type SessionStore struct {
	kv     *KV
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewSessionStore returns a session log backed by kv.
func NewSessionStore(kv *KV, opts ...Option) *SessionStore {
	o := buildOptions(opts)
	return &SessionStore{kv: kv, loc: o.loc, logger: o.logger, now: o.now}
}

func (s *SessionStore) load() ([]core.Session, error) {
	raw, ok := s.kv.Raw(KeySessions)
	if !ok {
		return nil, nil
	}
	r, err := revive(raw, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	for _, msg := range r.skipped {
		s.logger.Warn("skipping stored session", zap.String("reason", msg))
	}
	if n := assignSessionIDs(r.sessions, r.badSessionIDs, s.now()); n > 0 {
		s.logger.Info("reassigned session ids", zap.Int("count", n))
	}
	return r.sessions, nil
}

func (s *SessionStore) save(sessions []core.Session) error {
	recs := make([]sessionRecord, len(sessions))
	for i, ss := range sessions {
		recs[i] = toSessionRecord(ss)
	}
	if err := s.kv.Set(KeySessions, recs); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

// List returns the log newest first.
func (s *SessionStore) List(ctx context.Context) ([]core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	sortSessions(sessions)
	return sessions, nil
}

// Add appends sessions, assigning ids to those without one.
func (s *SessionStore) Add(ctx context.Context, add ...core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	now := s.now()
	for _, ss := range add {
		if ss.ID == 0 || slices.ContainsFunc(sessions, func(o core.Session) bool { return o.ID == ss.ID }) {
			ss.ID = nextSessionID(sessions, now)
		}
		sessions = append(sessions, ss)
	}
	sortSessions(sessions)
	return s.save(sessions)
}

// Clear empties the log.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(nil)
}

func sortSessions(sessions []core.Session) {
	slices.SortStableFunc(sessions, func(a, b core.Session) int {
		return b.Date.Compare(a.Date)
	})
}

func nextSessionID(sessions []core.Session, now time.Time) int64 {
	id := now.UnixMilli()
	for _, ss := range sessions {
		if ss.ID >= id {
			id = ss.ID + 1
		}
	}
	return id
}

func assignSessionIDs(sessions []core.Session, bad []int, now time.Time) int {
	for _, i := range bad {
		sessions[i].ID = 0
		sessions[i].ID = nextSessionID(sessions, now)
	}
	return len(bad)
}
