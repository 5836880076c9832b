// Package drafts keeps computed drafts in memory while an operator reviews
// them. Nothing here survives a restart, which matches the rule that an
// abandoned run persists nothing.
package drafts

import (
	"context"
	"sync"
	"time"

	"absentee/internal/domain/absentee"
	"absentee/internal/observability"
)

// DefaultTTL bounds how long an unreviewed draft is kept.
const DefaultTTL = 2 * time.Hour

type slot struct {
	draft   absentee.Draft
	expires time.Time
}

// MemoryStore holds at most one draft per session.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]slot
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store whose drafts expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		slots: make(map[string]slot),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores d as the session's current draft, replacing any earlier one.
// PRE: sessionID and d.ID are non-empty
// POST: Get(sessionID, d.ID) returns d until the TTL elapses
func (s *MemoryStore) Put(sessionID string, d absentee.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sessionID] = slot{draft: d, expires: s.now().Add(s.ttl)}
	observability.DraftsActive.Set(float64(len(s.slots)))
}

// Get returns the session's draft if its ID matches and it has not expired.
func (s *MemoryStore) Get(sessionID, draftID string) (absentee.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[sessionID]
	if !ok {
		return absentee.Draft{}, false
	}
	if !s.now().Before(sl.expires) {
		delete(s.slots, sessionID)
		observability.DraftsActive.Set(float64(len(s.slots)))
		return absentee.Draft{}, false
	}
	if sl.draft.ID != draftID {
		return absentee.Draft{}, false
	}
	return sl.draft, true
}

// Delete drops the session's draft, typically after it was finalized.
func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, sessionID)
	observability.DraftsActive.Set(float64(len(s.slots)))
}

// Sweep removes expired drafts and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sl := range s.slots {
		if !now.Before(sl.expires) {
			delete(s.slots, id)
			n++
		}
	}
	observability.DraftsActive.Set(float64(len(s.slots)))
	return n
}

// Len returns the number of stored drafts, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
