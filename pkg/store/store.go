// Package store persists the revoked and used state of issued tokens.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, redis)
// implement this and expose the token state repository through it.
type Store interface {
	TokenStates() TokenStates

	// ApplyMigrations prepares the backing schema. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error
}

// TokenStates records revoked and used tokens. There is at most one record
// per token: both Record calls insert only when no record exists yet, so a
// used token can't later be revoked and vice versa. Every call is atomic on
// its own; callers hold no locks.
type TokenStates interface {
	// FindState returns the record for token or ErrNotFound.
	FindState(ctx context.Context, token string) (TokenState, error)

	// RecordRevocation inserts a revoked record unless one exists. It
	// reports whether a record was inserted.
	RecordRevocation(ctx context.Context, token string, expiresAt time.Time) (bool, error)

	// RecordUsed inserts a used record unless one exists. It reports
	// whether a record was inserted.
	RecordUsed(ctx context.Context, token string, expiresAt time.Time) (bool, error)

	// Cleanup deletes records whose expiry is before now and returns how
	// many were removed.
	Cleanup(ctx context.Context, now time.Time) (int, error)
}

// Clock returns the current time. Drivers stamp records with it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
