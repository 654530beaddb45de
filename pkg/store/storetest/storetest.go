// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/stretchr/testify/require"
)

// FakeClock is a settable clock for drivers under test.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a clock at now.
func NewFakeClock(now time.Time) *FakeClock { return &FakeClock{now: now.UTC()} }

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory opens a fresh, migrated store whose records are stamped by clock.
type Factory func(t *testing.T, clock store.Clock) store.Store

// Run exercises a driver against the shared TokenStates contract.
func Run(t *testing.T, open Factory) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("find missing", func(t *testing.T) {
		s := open(t, NewFakeClock(base).Now)
		_, err := s.TokenStates().FindState(context.Background(), "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revocation is insert if absent", func(t *testing.T) {
		clock := NewFakeClock(base)
		s := open(t, clock.Now)
		repo := s.TokenStates()
		ctx := context.Background()
		exp := base.Add(time.Hour)

		inserted, err := repo.RecordRevocation(ctx, "tok-1", exp)
		require.NoError(t, err)
		require.True(t, inserted)

		clock.Advance(time.Minute)
		inserted, err = repo.RecordRevocation(ctx, "tok-1", exp.Add(time.Hour))
		require.NoError(t, err)
		require.False(t, inserted)

		st, err := repo.FindState(ctx, "tok-1")
		require.NoError(t, err)
		require.Equal(t, "tok-1", st.Token)
		require.True(t, st.IsRevoked)
		require.False(t, st.IsUsed)
		require.NotEmpty(t, st.ID)
		require.NotNil(t, st.RevokedAt)
		require.Nil(t, st.UsedAt)
		require.True(t, base.Equal(*st.RevokedAt), "first revocation time is kept")
		require.True(t, exp.Equal(st.ExpiresAt))
		require.True(t, base.Equal(st.CreatedAt))
	})

	t.Run("used blocks later revocation", func(t *testing.T) {
		s := open(t, NewFakeClock(base).Now)
		repo := s.TokenStates()
		ctx := context.Background()

		inserted, err := repo.RecordUsed(ctx, "tok-2", base.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, inserted)

		inserted, err = repo.RecordRevocation(ctx, "tok-2", base.Add(time.Hour))
		require.NoError(t, err)
		require.False(t, inserted)

		st, err := repo.FindState(ctx, "tok-2")
		require.NoError(t, err)
		require.True(t, st.IsUsed)
		require.False(t, st.IsRevoked)
		require.NotNil(t, st.UsedAt)
		require.Nil(t, st.RevokedAt)
	})

	t.Run("cleanup removes only expired", func(t *testing.T) {
		s := open(t, NewFakeClock(base).Now)
		repo := s.TokenStates()
		ctx := context.Background()

		_, err := repo.RecordRevocation(ctx, "old", base.Add(-time.Minute))
		require.NoError(t, err)
		_, err = repo.RecordUsed(ctx, "older", base.Add(-time.Hour))
		require.NoError(t, err)
		_, err = repo.RecordRevocation(ctx, "fresh", base.Add(time.Minute))
		require.NoError(t, err)

		n, err := repo.Cleanup(ctx, base)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		_, err = repo.FindState(ctx, "old")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = repo.FindState(ctx, "older")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = repo.FindState(ctx, "fresh")
		require.NoError(t, err)

		n, err = repo.Cleanup(ctx, base)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("concurrent inserts keep one record", func(t *testing.T) {
		s := open(t, NewFakeClock(base).Now)
		repo := s.TokenStates()
		ctx := context.Background()

		const workers = 16
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserted int
			errs     []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var ok bool
				var err error
				if i%2 == 0 {
					ok, err = repo.RecordUsed(ctx, "race", base.Add(time.Hour))
				} else {
					ok, err = repo.RecordRevocation(ctx, "race", base.Add(time.Hour))
				}
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, fmt.Errorf("worker %d: %w", i, err))
				}
				if ok {
					inserted++
				}
			}(i)
		}
		wg.Wait()

		require.Empty(t, errs)
		require.Equal(t, 1, inserted)

		st, err := repo.FindState(ctx, "race")
		require.NoError(t, err)
		require.NotEqual(t, st.IsUsed, st.IsRevoked)
	})

	t.Run("ping", func(t *testing.T) {
		s := open(t, NewFakeClock(base).Now)
		require.NoError(t, s.Ping(context.Background()))
	})
}
