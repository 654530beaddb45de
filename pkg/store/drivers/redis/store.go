// Package redis stores token state in Redis. Each record lives under its
// own key with a TTL that ends at the token's expiry, so Redis prunes most
// records on its own and Cleanup only sweeps what is left.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/cryptox"
	"github.com/aussiebroadwan/tokenkit/pkg/idx"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the driver.
const DefaultPrefix = "tokenkit:state:"

// minTTL keeps already expired records around until the next sweep.
const minTTL = time.Second

const scanCount = 100

// Store is the Redis driver.
type Store struct {
	client redis.UniversalClient
	prefix string
	clock  store.Clock
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithClock overrides the clock used to stamp records.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open connects to the Redis server at addr. The connection is closed by
// Close.
func Open(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	s := NewStore(client, opts...)
	s.owned = true
	return s, nil
}

// NewStore wraps an existing client. The caller keeps ownership of it.
func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		clock:  store.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) TokenStates() store.TokenStates { return &tokenStatesRepo{s: s} }

// ApplyMigrations is a no-op; Redis has no schema.
func (s *Store) ApplyMigrations() error { return nil }

// Ping verifies the server is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// key derives the record key from the token fingerprint so key length stays
// fixed whatever the token size.
func (s *Store) key(token string) string {
	return s.prefix + cryptox.FingerprintToken(token)
}

type tokenStatesRepo struct {
	s *Store
}

func (r *tokenStatesRepo) FindState(ctx context.Context, token string) (store.TokenState, error) {
	data, err := r.s.client.Get(ctx, r.s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.TokenState{}, store.ErrNotFound
	}
	if err != nil {
		return store.TokenState{}, err
	}

	var st store.TokenState
	if err := json.Unmarshal(data, &st); err != nil {
		return store.TokenState{}, fmt.Errorf("redis: decode state: %w", err)
	}
	return st, nil
}

func (r *tokenStatesRepo) RecordRevocation(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	now := r.s.clock().UTC()
	return r.insert(ctx, store.TokenState{
		Token:     token,
		IsRevoked: true,
		RevokedAt: &now,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	})
}

func (r *tokenStatesRepo) RecordUsed(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	now := r.s.clock().UTC()
	return r.insert(ctx, store.TokenState{
		Token:     token,
		IsUsed:    true,
		UsedAt:    &now,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	})
}

func (r *tokenStatesRepo) insert(ctx context.Context, st store.TokenState) (bool, error) {
	st.ID = idx.NewAt(st.CreatedAt).String()

	data, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("redis: encode state: %w", err)
	}

	ttl := st.ExpiresAt.Sub(st.CreatedAt)
	if ttl < minTTL {
		ttl = minTTL
	}

	return r.s.client.SetNX(ctx, r.s.key(st.Token), data, ttl).Result()
}

func (r *tokenStatesRepo) Cleanup(ctx context.Context, now time.Time) (int, error) {
	var (
		cursor  uint64
		deleted int
	)

	for {
		keys, next, err := r.s.client.Scan(ctx, cursor, r.s.prefix+"*", scanCount).Result()
		if err != nil {
			return deleted, err
		}

		for _, key := range keys {
			data, err := r.s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue // expired between SCAN and GET
			}
			if err != nil {
				return deleted, err
			}

			var st store.TokenState
			if err := json.Unmarshal(data, &st); err != nil {
				return deleted, fmt.Errorf("redis: decode state %s: %w", key, err)
			}
			if !st.IsExpired(now) {
				continue
			}

			n, err := r.s.client.Del(ctx, key).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
