// Package postgres provides a [memory.TurnStore] backed by a PostgreSQL
// conversation_turns table, for deployments that need conversation context to
// survive restarts and to be shared across backend replicas.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BharatDhande/Vaani/pkg/intent"
	"github.com/BharatDhande/Vaani/pkg/memory"
)

// Store is a PostgreSQL-backed [memory.TurnStore]. It holds a single
// [pgxpool.Pool]; per-session ordering is enforced by the database, so
// different sessions never contend on an in-process lock.
//
// Both bounds are pushed to the store: Get applies the TTL window and turn
// limit in SQL, and Append prunes rows that fell outside either bound. All
// methods are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	maxTurns int
	ttl      time.Duration
}

// New connects to the PostgreSQL database at dsn, verifies the connection,
// and ensures the conversation_turns table exists.
func New(ctx context.Context, dsn string, maxTurns int, ttl time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{pool: pool, maxTurns: maxTurns, ttl: ttl}, nil
}

// migrate creates the conversation_turns table and its session index.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS conversation_turns (
		    turn_id    TEXT PRIMARY KEY,
		    session_id TEXT        NOT NULL,
		    text       TEXT        NOT NULL,
		    intent     TEXT        NOT NULL,
		    slots      JSONB       NOT NULL DEFAULT '{}',
		    spoken     TEXT        NOT NULL DEFAULT '',
		    timestamp  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS conversation_turns_session_ts
		    ON conversation_turns (session_id, timestamp);`

	_, err := pool.Exec(ctx, ddl)
	return err
}

// Get implements [memory.TurnStore]. It returns the newest maxTurns entries
// inside the TTL window, reordered oldest first.
func (s *Store) Get(ctx context.Context, sessionID string) ([]memory.Turn, error) {
	const q = `
		SELECT turn_id, session_id, text, intent, slots, spoken, timestamp
		FROM   conversation_turns
		WHERE  session_id = $1
		  AND  timestamp  >= now() - ($2::bigint * interval '1 microsecond')
		ORDER  BY timestamp DESC
		LIMIT  $3`

	rows, err := s.pool.Query(ctx, q, sessionID, s.ttl.Microseconds(), s.maxTurns)
	if err != nil {
		return nil, fmt.Errorf("turn store: get: %w", err)
	}

	turns, err := collectTurns(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the LIMIT query; callers expect oldest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Append implements [memory.TurnStore]. It inserts the turn and prunes rows
// that fell outside the TTL window or the per-session turn bound.
func (s *Store) Append(ctx context.Context, sessionID string, turn memory.Turn) error {
	slots, err := json.Marshal(turn.Slots)
	if err != nil {
		return fmt.Errorf("turn store: encode slots: %w", err)
	}

	const ins = `
		INSERT INTO conversation_turns
		    (turn_id, session_id, text, intent, slots, spoken, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := s.pool.Exec(ctx, ins,
		turn.ID, sessionID, turn.Text, string(turn.Intent), slots, turn.Spoken, turn.Timestamp,
	); err != nil {
		return fmt.Errorf("turn store: append: %w", err)
	}

	const prune = `
		DELETE FROM conversation_turns
		WHERE  session_id = $1
		  AND  (timestamp < now() - ($2::bigint * interval '1 microsecond')
		    OR  turn_id NOT IN (
		          SELECT turn_id FROM conversation_turns
		          WHERE  session_id = $1
		          ORDER  BY timestamp DESC
		          LIMIT  $3))`

	if _, err := s.pool.Exec(ctx, prune, sessionID, s.ttl.Microseconds(), s.maxTurns); err != nil {
		return fmt.Errorf("turn store: prune: %w", err)
	}
	return nil
}

// Clear implements [memory.TurnStore].
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE session_id = $1`, sessionID,
	); err != nil {
		return fmt.Errorf("turn store: clear: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// collectTurns scans pgx rows into a slice of Turn values.
func collectTurns(rows pgx.Rows) ([]memory.Turn, error) {
	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (memory.Turn, error) {
		var (
			t        memory.Turn
			kind     string
			rawSlots []byte
		)
		if err := row.Scan(&t.ID, &t.SessionID, &t.Text, &kind, &rawSlots, &t.Spoken, &t.Timestamp); err != nil {
			return memory.Turn{}, err
		}
		t.Intent = intent.Kind(kind)
		if err := json.Unmarshal(rawSlots, &t.Slots); err != nil {
			return memory.Turn{}, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("turn store: scan rows: %w", err)
	}
	if turns == nil {
		turns = []memory.Turn{}
	}
	return turns, nil
}

// Compile-time check that Store satisfies memory.TurnStore.
var _ memory.TurnStore = (*Store)(nil)
