// Package session guards the conversation memory used by the intent
// pipeline. The guard makes the memory tier optional at runtime: a request
// must never fail because the turn store is down.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/BharatDhande/Vaani/internal/observe"
	"github.com/BharatDhande/Vaani/pkg/memory"
)

// StoreGuard wraps a [memory.TurnStore] and makes all operations non-fatal.
// If the underlying store fails, reads return empty history and writes are
// swallowed, with a warning logged either way.
//
// This keeps the assistant answering when the memory backend is temporarily
// unavailable (database restart, network partition); follow-up resolution
// quality degrades, nothing else. The IsDegraded method reports whether the
// store is currently experiencing failures, for readiness reporting.
//
// StoreGuard implements [memory.TurnStore]. All methods are safe for
// concurrent use.
type StoreGuard struct {
	store    memory.TurnStore
	metrics  *observe.Metrics
	degraded atomic.Bool

	mu   sync.Mutex
	live map[string]struct{}
}

// Option configures a StoreGuard.
type Option func(*StoreGuard)

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *StoreGuard) {
		g.metrics = m
	}
}

// NewStoreGuard creates a [StoreGuard] wrapping the given store.
func NewStoreGuard(store memory.TurnStore, opts ...Option) *StoreGuard {
	g := &StoreGuard{
		store: store,
		live:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g
}

// markLive adds sessionID to the live set and bumps the active-sessions gauge
// on first sight. The gauge reflects the guard's view of appends and clears;
// backend-side TTL eviction is not observed here.
func (g *StoreGuard) markLive(ctx context.Context, sessionID string) {
	g.mu.Lock()
	_, known := g.live[sessionID]
	if !known {
		g.live[sessionID] = struct{}{}
	}
	g.mu.Unlock()
	if !known {
		g.metrics.ActiveSessions.Add(ctx, 1)
	}
}

// markCleared removes sessionID from the live set and decrements the gauge if
// the session had history.
func (g *StoreGuard) markCleared(ctx context.Context, sessionID string) {
	g.mu.Lock()
	_, known := g.live[sessionID]
	delete(g.live, sessionID)
	g.mu.Unlock()
	if known {
		g.metrics.ActiveSessions.Add(ctx, -1)
	}
}

// Get reads the session's turns. On failure an empty slice is returned and
// the store is marked as degraded; on success the flag is cleared.
func (g *StoreGuard) Get(ctx context.Context, sessionID string) ([]memory.Turn, error) {
	turns, err := g.store.Get(ctx, sessionID)
	if err != nil {
		g.degraded.Store(true)
		slog.Warn("store guard: Get failed, returning empty history",
			"session_id", sessionID,
			"error", err,
		)
		return []memory.Turn{}, nil
	}
	g.degraded.Store(false)
	return turns, nil
}

// Append attempts to record a turn. On failure the error is logged and
// swallowed; the store is marked as degraded.
func (g *StoreGuard) Append(ctx context.Context, sessionID string, turn memory.Turn) error {
	err := g.store.Append(ctx, sessionID, turn)
	if err != nil {
		g.degraded.Store(true)
		slog.Warn("store guard: Append failed, swallowing error",
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}
	g.degraded.Store(false)
	g.markLive(ctx, sessionID)
	return nil
}

// Clear drops the session's history. Failures are logged and swallowed so a
// memory wipe request always succeeds from the client's point of view.
func (g *StoreGuard) Clear(ctx context.Context, sessionID string) error {
	err := g.store.Clear(ctx, sessionID)
	if err != nil {
		g.degraded.Store(true)
		slog.Warn("store guard: Clear failed, swallowing error",
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}
	g.degraded.Store(false)
	g.markCleared(ctx, sessionID)
	return nil
}

// IsDegraded reports whether the most recent operation on the underlying
// store failed.
func (g *StoreGuard) IsDegraded() bool {
	return g.degraded.Load()
}

// Compile-time check that StoreGuard satisfies memory.TurnStore.
var _ memory.TurnStore = (*StoreGuard)(nil)
