// Package redis provides a [memory.TurnStore] backed by Redis lists, one list
// per session. This is the production backend when multiple backend replicas
// must share conversation context without a relational database.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BharatDhande/Vaani/pkg/memory"
)

// keyPrefix namespaces session keys inside a shared Redis instance.
const keyPrefix = "vaani:mem:"

// Store is a Redis-backed [memory.TurnStore]. Each session maps to one list
// key; the size bound is enforced with LTRIM on every append and the TTL with
// a key expiry refreshed on write, so idle sessions disappear on their own.
//
// Redis serializes commands per connection, which gives the per-session
// ordering the router needs without any in-process locking. All methods are
// safe for concurrent use.
type Store struct {
	client   *goredis.Client
	maxTurns int
	ttl      time.Duration
}

// New connects to the Redis instance at url (e.g.
// "redis://localhost:6379/0") and verifies the connection.
func New(ctx context.Context, url string, maxTurns int, ttl time.Duration) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis store: parse url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis store: ping: %w", err)
	}

	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, maxTurns: maxTurns, ttl: ttl}, nil
}

// Get implements [memory.TurnStore]. Entries that outlived the TTL while the
// key itself was kept alive by newer writes are filtered out here.
func (s *Store) Get(ctx context.Context, sessionID string) ([]memory.Turn, error) {
	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("turn store: lrange: %w", err)
	}

	cutoff := time.Now().Add(-s.ttl)
	turns := make([]memory.Turn, 0, len(raw))
	for _, item := range raw {
		var t memory.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("turn store: decode turn: %w", err)
		}
		if t.Timestamp.Before(cutoff) {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append implements [memory.TurnStore]. The list is trimmed to the newest
// maxTurns entries and the key expiry is refreshed in the same pipeline.
func (s *Store) Append(ctx context.Context, sessionID string, turn memory.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("turn store: encode turn: %w", err)
	}

	key := keyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("turn store: append: %w", err)
	}
	return nil
}

// Clear implements [memory.TurnStore].
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("turn store: clear: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Compile-time check that Store satisfies memory.TurnStore.
var _ memory.TurnStore = (*Store)(nil)
