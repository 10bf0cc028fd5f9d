// Package mock provides a test double for the memory.TurnStore interface.
//
// Use Store in unit tests to feed controlled history snapshots to the router
// and to verify append behaviour without a live backend. Set the Err fields
// to inject storage failures.
package mock

import (
	"context"
	"sync"

	"github.com/BharatDhande/Vaani/pkg/memory"
)

// AppendCall records a single invocation of Append.
type AppendCall struct {
	// SessionID is the session passed to Append.
	SessionID string
	// Turn is the turn passed to Append.
	Turn memory.Turn
}

// Store is a mock implementation of memory.TurnStore. Zero values cause
// methods to return empty results and nil errors.
type Store struct {
	mu sync.Mutex

	// Turns is returned by Get regardless of session ID.
	Turns []memory.Turn

	// GetErr, if non-nil, is returned as the error from Get.
	GetErr error

	// AppendErr, if non-nil, is returned as the error from Append.
	AppendErr error

	// ClearErr, if non-nil, is returned as the error from Clear.
	ClearErr error

	// GetCalls records the session IDs passed to Get, in order.
	GetCalls []string

	// AppendCalls records every invocation of Append, in order.
	AppendCalls []AppendCall

	// ClearCalls records the session IDs passed to Clear, in order.
	ClearCalls []string
}

// Get implements memory.TurnStore.
func (s *Store) Get(_ context.Context, sessionID string) ([]memory.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls = append(s.GetCalls, sessionID)
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	out := make([]memory.Turn, len(s.Turns))
	copy(out, s.Turns)
	return out, nil
}

// Append implements memory.TurnStore.
func (s *Store) Append(_ context.Context, sessionID string, turn memory.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AppendCalls = append(s.AppendCalls, AppendCall{SessionID: sessionID, Turn: turn})
	return s.AppendErr
}

// Clear implements memory.TurnStore.
func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearCalls = append(s.ClearCalls, sessionID)
	return s.ClearErr
}

// Compile-time check that Store satisfies memory.TurnStore.
var _ memory.TurnStore = (*Store)(nil)
