package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
	"github.com/aussiebroadwan/tokenkit/pkg/keyring"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/slogx"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
)

// Identity is an authenticated caller: the compact token it presented and
// the claims read from it.
type Identity struct {
	Token  string
	Claims *jwtx.Claims
}

// Options drive a single authorization.
type Options struct {
	// Profile overrides the tn claim when set.
	Profile string

	// Issuers and Audiences are only checked when non-empty.
	Issuers   []string
	Audiences []string

	ValidateExpiration bool
}

// DefaultOptions checks the lifetime and nothing else.
func DefaultOptions() Options {
	return Options{ValidateExpiration: true}
}

// ParseList splits a comma separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Authorizer decides whether a presented token may be used, and records
// revocation and single use in the state store.
type Authorizer struct {
	Profiles *profile.Registry
	Keys     *keyring.Keyring
	States   store.TokenStates
	Now      func() time.Time
}

// NewAuthorizer builds an Authorizer on the wall clock.
func NewAuthorizer(profiles *profile.Registry, keys *keyring.Keyring, states store.TokenStates) *Authorizer {
	return &Authorizer{Profiles: profiles, Keys: keys, States: states}
}

// Authenticate establishes an identity from a raw token, enveloped or not.
// Only the signature is checked, against every known key. It returns nil
// when no identity can be established.
func (a *Authorizer) Authenticate(raw string) *Identity {
	token, err := jwtx.Unwrap(raw)
	if err != nil {
		return nil
	}
	claims, err := a.Keys.KeySet().Verify(token, jwtx.VerifyOptions{})
	if err != nil {
		return nil
	}
	return &Identity{Token: token, Claims: claims}
}

// AuthorizeToken authenticates raw and authorizes the result.
func (a *Authorizer) AuthorizeToken(ctx context.Context, raw string, opts Options) (Decision, error) {
	return a.Authorize(ctx, a.Authenticate(raw), opts)
}

// Authorize runs the checks in order and stops at the first failure. Token
// problems come back as a Status; the error is only set when the state store
// fails or ctx is done.
func (a *Authorizer) Authorize(ctx context.Context, id *Identity, opts Options) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	l := slogx.FromContext(ctx)

	if id == nil {
		return Decision{Status: StatusTokenRequired, Anonymous: true}, nil
	}
	if id.Token == "" {
		return Decision{Status: StatusTokenRequired}, nil
	}

	name := strings.TrimSpace(opts.Profile)
	if name == "" {
		name = a.tokenName(id)
	}
	if name == "" || !a.Profiles.Has(name) {
		l.Debug("authorize: unknown profile", slog.String("profile", name))
		return Decision{Status: StatusInvalid}, nil
	}

	key, err := a.Keys.VerificationKey(name)
	if err != nil {
		l.Debug("authorize: profile cannot validate", slog.String("profile", name))
		return Decision{Status: StatusInvalid}, nil
	}
	p, _ := a.Profiles.Get(name)

	claims, err := key.Verify(id.Token, jwtx.VerifyOptions{
		Issuers:          opts.Issuers,
		Audiences:        opts.Audiences,
		ValidateLifetime: opts.ValidateExpiration,
		Now:              a.now,
	})
	if err != nil {
		status := statusFor(err)
		l.Debug("authorize: token rejected",
			slog.String("profile", p.Name),
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
		return Decision{Status: status, Profile: p.Name}, nil
	}

	state, found, err := a.findState(ctx, id.Token)
	if err != nil {
		return Decision{}, err
	}
	if found && state.IsRevoked {
		return Decision{Status: StatusRevoked, Profile: p.Name}, nil
	}

	if claims.IsOneTimeUse() {
		if found && state.IsUsed {
			return Decision{Status: StatusAlreadyUsed, Profile: p.Name}, nil
		}

		inserted, err := a.States.RecordUsed(ctx, id.Token, expiry(claims, a.now()))
		if err != nil {
			return Decision{}, fmt.Errorf("service: record used: %w", err)
		}
		if !inserted {
			// Someone else recorded the token between the lookup and the
			// insert. Whatever they wrote wins.
			state, _, err := a.findState(ctx, id.Token)
			if err != nil {
				return Decision{}, err
			}
			if state.IsRevoked {
				return Decision{Status: StatusRevoked, Profile: p.Name}, nil
			}
			return Decision{Status: StatusAlreadyUsed, Profile: p.Name}, nil
		}
		l.Debug("one time token consumed", slog.String("profile", p.Name), slog.String("jti", claims.ID))
	}

	return Decision{Status: StatusValid, Claims: claims, Profile: p.Name}, nil
}

// Revoke records token as revoked until its own expiry. It returns false
// when the token already has a state record, revoked or used.
func (a *Authorizer) Revoke(ctx context.Context, token string, claims *jwtx.Claims) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, ErrTokenRequired
	}
	compact, err := jwtx.Unwrap(token)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims == nil {
		if claims, err = jwtx.PeekClaims(compact); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if claims.ExpiresAt == nil {
		return false, fmt.Errorf("%w: no exp claim", ErrInvalidToken)
	}

	inserted, err := a.States.RecordRevocation(ctx, compact, claims.ExpiresAt.Time)
	if err != nil {
		return false, fmt.Errorf("service: record revocation: %w", err)
	}

	slogx.FromContext(ctx).Info("token revoked",
		slog.String("profile", claims.TokenName),
		slog.String("jti", claims.ID),
		slog.Bool("inserted", inserted),
	)
	return inserted, nil
}

// IsRevoked reports whether token has a revoked record. It is false for an
// empty token or nil claims.
func (a *Authorizer) IsRevoked(ctx context.Context, token string, claims *jwtx.Claims) (bool, error) {
	if token == "" || claims == nil {
		return false, nil
	}
	state, found, err := a.findState(ctx, token)
	if err != nil || !found {
		return false, err
	}
	return state.IsRevoked, nil
}

// IsUsed reports whether a one time use token has been consumed. It is
// false for an empty token, nil claims and tokens that are not one time use.
func (a *Authorizer) IsUsed(ctx context.Context, token string, claims *jwtx.Claims) (bool, error) {
	if token == "" || claims == nil || !claims.IsOneTimeUse() {
		return false, nil
	}
	state, found, err := a.findState(ctx, token)
	if err != nil || !found {
		return false, err
	}
	return state.IsUsed, nil
}

// TokenPayload returns every claim of the identity under its claim name.
func TokenPayload(id *Identity) map[string]string {
	if id == nil || id.Claims == nil {
		return nil
	}
	return id.Claims.Map()
}

// IdentityPayload is TokenPayload with the identity claim under "name".
func IdentityPayload(id *Identity) map[string]string {
	m := TokenPayload(id)
	if m == nil {
		return nil
	}
	if v, ok := m[jwtx.ClaimName]; ok {
		delete(m, jwtx.ClaimName)
		m["name"] = v
	}
	return m
}

func (a *Authorizer) tokenName(id *Identity) string {
	if id.Claims != nil {
		return id.Claims.TokenName
	}
	claims, err := jwtx.PeekClaims(id.Token)
	if err != nil {
		return ""
	}
	return claims.TokenName
}

func (a *Authorizer) findState(ctx context.Context, token string) (store.TokenState, bool, error) {
	state, err := a.States.FindState(ctx, token)
	switch {
	case err == nil:
		return state, true, nil
	case errors.Is(err, store.ErrNotFound):
		return store.TokenState{}, false, nil
	default:
		return store.TokenState{}, false, fmt.Errorf("service: find state: %w", err)
	}
}

func (a *Authorizer) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

func statusFor(err error) Status {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return StatusExpired
	case errors.Is(err, jwtx.ErrAudience):
		return StatusInvalidAudience
	default:
		return StatusInvalid
	}
}

// expiry is the exp claim, or now when the token has none.
func expiry(c *jwtx.Claims, now time.Time) time.Time {
	if c.ExpiresAt == nil {
		return now
	}
	return c.ExpiresAt.Time
}
