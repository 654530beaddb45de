package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/keyring"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/aussiebroadwan/tokenkit/pkg/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokenkit/pkg/store/storetest"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://x.io"
	testAudience = "urn:api:default"
)

type harness struct {
	clock      *storetest.FakeClock
	profiles   *profile.Registry
	keys       *keyring.Keyring
	states     store.TokenStates
	issuer     *service.Issuer
	authorizer *service.Authorizer
}

func minutes(m float64) *float64 { return &m }

func passPhraseProfile(t *testing.T, name string, def profile.Definition) profile.Profile {
	t.Helper()
	if def.Issuer == "" {
		def.Issuer = testIssuer
	}
	if def.IntendedAudience == "" {
		def.IntendedAudience = testAudience
	}
	if def.Signature == nil {
		def.Signature = &profile.Signature{PassPhrase: "secret-" + name}
	}
	p, err := profile.New(name, def)
	require.NoError(t, err)
	return p
}

func newHarness(t *testing.T, profiles ...profile.Profile) *harness {
	t.Helper()

	clock := storetest.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	reg := profile.NewRegistry(profiles...)
	keys, err := keyring.Resolve(reg, keyring.Options{Root: t.TempDir()})
	require.NoError(t, err)

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "db", "tokens.db"), sqlite.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	issuer := service.NewIssuer(reg, keys)
	issuer.Now = clock.Now
	authorizer := service.NewAuthorizer(reg, keys, s.TokenStates())
	authorizer.Now = clock.Now

	return &harness{
		clock:      clock,
		profiles:   reg,
		keys:       keys,
		states:     s.TokenStates(),
		issuer:     issuer,
		authorizer: authorizer,
	}
}

func (h *harness) issue(t *testing.T, name, identity string, custom map[string]string) string {
	t.Helper()
	token, err := h.issuer.Issue(context.Background(), name, identity, custom)
	require.NoError(t, err)
	return token
}

func (h *harness) authorize(t *testing.T, token string, opts service.Options) service.Decision {
	t.Helper()
	d, err := h.authorizer.AuthorizeToken(context.Background(), token, opts)
	require.NoError(t, err)
	return d
}
