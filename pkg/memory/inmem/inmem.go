// Package inmem provides an in-process [memory.TurnStore] backed by bounded
// per-session rings. It is the default backend for development and for
// deployments that accept losing conversation context on restart.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/BharatDhande/Vaani/pkg/memory"
)

// Store keeps a bounded ring of turns per session. Each ring enforces a
// maximum entry count and a maximum age; both limits are applied lazily on
// Get and Append rather than by a background sweep, so memory may be held
// slightly past the logical TTL under low traffic.
//
// Sessions are isolated: each ring has its own lock, and the top-level map
// lock is held only long enough to find or create the ring. All methods are
// safe for concurrent use.
type Store struct {
	maxTurns int
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*ring

	// now is swappable in tests to exercise TTL eviction without sleeping.
	now func() time.Time
}

// ring holds one session's turns, oldest first.
type ring struct {
	mu    sync.Mutex
	turns []memory.Turn
}

// New creates a Store retaining at most maxTurns entries per session and
// evicting entries older than ttl. Non-positive values fall back to 10 turns
// and one hour.
func New(maxTurns int, ttl time.Duration) *Store {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		maxTurns: maxTurns,
		ttl:      ttl,
		sessions: make(map[string]*ring),
		now:      time.Now,
	}
}

// Get implements [memory.TurnStore]. It returns a copy of the session's
// retained turns, oldest first. Unknown sessions yield an empty slice.
func (s *Store) Get(ctx context.Context, sessionID string) ([]memory.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	r := s.sessions[sessionID]
	s.mu.RUnlock()
	if r == nil {
		return []memory.Turn{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.evict(r)

	out := make([]memory.Turn, len(r.turns))
	copy(out, r.turns)
	return out, nil
}

// Append implements [memory.TurnStore]. It records turn at the end of the
// session's ring, evicting the oldest entries beyond the size bound.
func (s *Store) Append(ctx context.Context, sessionID string, turn memory.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	r := s.sessions[sessionID]
	if r == nil {
		r = &ring{turns: make([]memory.Turn, 0, s.maxTurns)}
		s.sessions[sessionID] = r
	}
	s.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.turns = append(r.turns, turn)
	s.evict(r)
	return nil
}

// Clear implements [memory.TurnStore]. Clearing an unknown session is a no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// evict drops expired turns from the front, then trims to the size bound.
// Must be called with r.mu held.
func (s *Store) evict(r *ring) {
	cutoff := s.now().Add(-s.ttl)
	start := 0
	for start < len(r.turns) && r.turns[start].Timestamp.Before(cutoff) {
		start++
	}
	if over := len(r.turns) - start - s.maxTurns; over > 0 {
		start += over
	}
	if start > 0 {
		r.turns = append(r.turns[:0], r.turns[start:]...)
	}
}

// Compile-time check that Store satisfies memory.TurnStore.
var _ memory.TurnStore = (*Store)(nil)
