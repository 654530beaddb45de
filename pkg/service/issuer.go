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
)

// Issuer signs tokens for registered profiles. It holds no mutable state
// and never touches the token store.
type Issuer struct {
	Profiles *profile.Registry
	Keys     *keyring.Keyring
	Now      func() time.Time
}

// NewIssuer builds an Issuer on the wall clock.
func NewIssuer(profiles *profile.Registry, keys *keyring.Keyring) *Issuer {
	return &Issuer{Profiles: profiles, Keys: keys}
}

// Issued is a freshly signed token and the claims inside it.
type Issued struct {
	Token     string       `json:"token"`
	Profile   string       `json:"profile"`
	Claims    *jwtx.Claims `json:"claims"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Issue signs a token for identity against the named profile. Custom claims
// using a reserved name are dropped.
func (s *Issuer) Issue(ctx context.Context, profileName, identity string, custom map[string]string) (string, error) {
	issued, err := s.IssueToken(ctx, profileName, identity, custom)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// IssueToken is Issue returning the claims as well.
func (s *Issuer) IssueToken(ctx context.Context, profileName, identity string, custom map[string]string) (*Issued, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := slogx.FromContext(ctx)

	p, err := s.Profiles.Get(profileName)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, profileName)
		}
		return nil, err
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	signer, err := s.Keys.Signer(p.Name)
	if err != nil {
		if errors.Is(err, keyring.ErrCannotSign) {
			return nil, fmt.Errorf("%w: %q", ErrCannotIssue, p.Name)
		}
		return nil, err
	}

	claims := jwtx.NewClaims(
		p.Name,
		identity,
		p.Issuer,
		[]string{p.Audience},
		p.ExpirationMinutes,
		p.OneTimeUse,
		custom,
		s.now(),
	)

	token, err := signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("service: sign %s token: %w", p.Name, err)
	}
	if p.Base64Encoded {
		token = jwtx.Encode(token)
	}

	l.Debug("token issued",
		slog.String("profile", p.Name),
		slog.String("jti", claims.ID),
		slog.Bool("otu", p.OneTimeUse),
	)

	return &Issued{
		Token:     token,
		Profile:   p.Name,
		Claims:    &claims,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Issuer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
