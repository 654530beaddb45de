package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/store"
	_ "modernc.org/sqlite"
)

// Store is the embedded sqlite driver. Every operation is a single
// statement, so sqlite's own locking provides the atomicity.
type Store struct {
	db    *sql.DB
	dsn   string
	clock store.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp records.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// DSN returns the modernc.org/sqlite connection string for a database file
// with a busy timeout and WAL journaling.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// Open creates the parent directory of path and opens the database file.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: create %s: %w", dir, err)
		}
	}
	return NewStore(DSN(path), opts...)
}

// NewStore opens a store for dsn.
func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:    db,
		dsn:   dsn,
		clock: store.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) TokenStates() store.TokenStates { return &tokenStatesRepo{db: s.db, clock: s.clock} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if n.Valid {
		val := fromMillis(n.Int64)
		return &val
	}
	return nil
}
