package store

import "time"

// TokenState is the persisted record of a revoked or used token.
type TokenState struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	IsRevoked bool       `json:"is_revoked"`
	IsUsed    bool       `json:"is_used"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired reports whether the record may be pruned at now.
func (s TokenState) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
