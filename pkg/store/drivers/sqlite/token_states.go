package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/idx"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
)

type tokenStatesRepo struct {
	db    *sql.DB
	clock store.Clock
}

const findStateSQL = `
SELECT id, token, is_revoked, is_used, revoked_at, used_at, expires_at, created_at
FROM token_states
WHERE token = ?`

const insertStateSQL = `
INSERT INTO token_states (id, token, is_revoked, is_used, revoked_at, used_at, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(token) DO NOTHING`

const cleanupSQL = `DELETE FROM token_states WHERE expires_at < ?`

func (r *tokenStatesRepo) FindState(ctx context.Context, token string) (store.TokenState, error) {
	var (
		st                 store.TokenState
		revokedAt, usedAt  sql.NullInt64
		expiresAt, created int64
	)

	err := r.db.QueryRowContext(ctx, findStateSQL, token).Scan(
		&st.ID, &st.Token, &st.IsRevoked, &st.IsUsed, &revokedAt, &usedAt, &expiresAt, &created,
	)
	if err != nil {
		return store.TokenState{}, mapNotFound(err)
	}

	st.RevokedAt = mapNullMillisPtr(revokedAt)
	st.UsedAt = mapNullMillisPtr(usedAt)
	st.ExpiresAt = fromMillis(expiresAt)
	st.CreatedAt = fromMillis(created)
	return st, nil
}

func (r *tokenStatesRepo) RecordRevocation(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	now := r.clock()
	return r.insert(ctx, token, true, false, sql.NullInt64{Int64: toMillis(now), Valid: true}, sql.NullInt64{}, expiresAt, now)
}

func (r *tokenStatesRepo) RecordUsed(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	now := r.clock()
	return r.insert(ctx, token, false, true, sql.NullInt64{}, sql.NullInt64{Int64: toMillis(now), Valid: true}, expiresAt, now)
}

func (r *tokenStatesRepo) insert(
	ctx context.Context,
	token string,
	revoked, used bool,
	revokedAt, usedAt sql.NullInt64,
	expiresAt, now time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertStateSQL,
		idx.NewAt(now).String(),
		token,
		revoked,
		used,
		revokedAt,
		usedAt,
		toMillis(expiresAt),
		toMillis(now),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *tokenStatesRepo) Cleanup(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, cleanupSQL, toMillis(now))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
