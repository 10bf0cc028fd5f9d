// Package memory defines the conversation-memory contract used by the Vaani
// intent router: a per-session, time-ordered, bounded log of [Turn] records.
//
// The router only ever reads a snapshot and submits append requests; it never
// mutates history directly. Implementations must enforce both a maximum turn
// count per session (oldest evicted first) and a TTL (turns older than the
// configured age are dropped before use).
//
// The interface is public so that alternative backends (in-process ring,
// Redis, PostgreSQL, ...) can be supplied without depending on internals.
// Every implementation must be safe for concurrent use; operations on
// different sessions must not contend on a shared lock.
package memory

import (
	"context"
	"time"

	"github.com/BharatDhande/Vaani/pkg/intent"
)

// Turn is one completed exchange: what the user said and how it resolved.
type Turn struct {
	// ID uniquely identifies this turn (a UUID).
	ID string

	// SessionID is the conversation thread this turn belongs to.
	SessionID string

	// Text is the user's utterance as routed.
	Text string

	// Intent is the kind the pipeline resolved the utterance to.
	Intent intent.Kind

	// Slots are the parameters extracted for the resolved intent. Kept so
	// later turns can resolve pronoun referents ("call her") from history.
	Slots intent.Slots

	// Spoken is the assistant's spoken reply for this turn, if any.
	Spoken string

	// Timestamp is when the turn completed.
	Timestamp time.Time
}

// TurnStore is the narrow get/append contract the router depends on.
//
// Get returns the session's retained turns oldest-first, already bounded and
// TTL-filtered. Append records a completed turn, evicting the oldest entry
// when the session is at capacity. Clear drops a session's history entirely.
//
// All methods must respect context cancellation.
type TurnStore interface {
	Get(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turn Turn) error
	Clear(ctx context.Context, sessionID string) error
}
