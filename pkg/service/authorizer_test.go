package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_IssuedTokenIsValid(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))

	token := h.issue(t, "API", "alice", map[string]string{"role": "admin"})
	d := h.authorize(t, token, service.DefaultOptions())

	require.Equal(t, service.StatusValid, d.Status)
	require.True(t, d.Allowed())
	require.Equal(t, "API", d.Profile)
	require.Equal(t, "alice", d.Claims.Identity())
	require.Equal(t, "admin", d.Claims.Custom["role"])
}

func TestAuthorize_NoIdentity(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	ctx := context.Background()

	d, err := h.authorizer.Authorize(ctx, nil, service.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, service.StatusTokenRequired, d.Status)
	require.True(t, d.Anonymous)

	d, err = h.authorizer.Authorize(ctx, &service.Identity{}, service.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, service.StatusTokenRequired, d.Status)
	require.False(t, d.Anonymous)

	// A token nobody signed never becomes an identity.
	require.Nil(t, h.authorizer.Authenticate("not-a-token"))
	require.Nil(t, h.authorizer.Authenticate(""))
	d = h.authorize(t, "a.b.c", service.DefaultOptions())
	require.Equal(t, service.StatusTokenRequired, d.Status)
}

func TestAuthorize_ProfileSelection(t *testing.T) {
	h := newHarness(t,
		passPhraseProfile(t, "API", profile.Definition{}),
		passPhraseProfile(t, "WEB", profile.Definition{}),
	)

	token := h.issue(t, "API", "alice", nil)

	d := h.authorize(t, token, service.Options{Profile: "web"})
	require.Equal(t, service.StatusInvalid, d.Status)

	d = h.authorize(t, token, service.Options{Profile: "missing"})
	require.Equal(t, service.StatusInvalid, d.Status)

	d = h.authorize(t, token, service.Options{Profile: "api"})
	require.Equal(t, service.StatusValid, d.Status)
}

func TestAuthorize_TokenNameNotRegistered(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))

	// Signed with the API secret but naming a profile that doesn't exist.
	signer, err := h.keys.Signer("API")
	require.NoError(t, err)
	token, err := signer.Sign(jwtx.NewClaims("GHOST", "alice", testIssuer, []string{testAudience}, 15, false, nil, h.clock.Now()))
	require.NoError(t, err)

	d := h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusInvalid, d.Status)
}

func TestAuthorize_IssuerAndAudience(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	token := h.issue(t, "API", "alice", nil)

	d := h.authorize(t, token, service.Options{Audiences: []string{"urn:other:aud"}})
	require.Equal(t, service.StatusInvalidAudience, d.Status)

	d = h.authorize(t, token, service.Options{Issuers: []string{"https://other.io"}})
	require.Equal(t, service.StatusInvalid, d.Status)

	d = h.authorize(t, token, service.Options{
		Issuers:   service.ParseList("https://other.io, " + testIssuer),
		Audiences: service.ParseList(testAudience),
	})
	require.Equal(t, service.StatusValid, d.Status)
}

func TestAuthorize_Expiration(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "SHORT", profile.Definition{ExpirationInMinute: minutes(0.001)}))
	token := h.issue(t, "SHORT", "alice", nil)

	h.clock.Advance(2 * time.Second)

	d := h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusExpired, d.Status)

	d = h.authorize(t, token, service.Options{ValidateExpiration: false})
	require.Equal(t, service.StatusValid, d.Status)
}

func TestAuthorize_TamperedSignature(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	token := h.issue(t, "API", "alice", nil)

	id := h.authorizer.Authenticate(token)
	require.NotNil(t, id)
	id.Token = token[:len(token)-2] + "xx"

	d, err := h.authorizer.Authorize(context.Background(), id, service.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, service.StatusInvalid, d.Status)
}

func TestAuthorize_OneTimeUse(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "OTU", profile.Definition{OneTimeUse: true}))
	ctx := context.Background()

	token := h.issue(t, "OTU", "alice", nil)
	id := h.authorizer.Authenticate(token)
	require.NotNil(t, id)

	used, err := h.authorizer.IsUsed(ctx, id.Token, id.Claims)
	require.NoError(t, err)
	require.False(t, used)

	d := h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusValid, d.Status)

	used, err = h.authorizer.IsUsed(ctx, id.Token, id.Claims)
	require.NoError(t, err)
	require.True(t, used)

	d = h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusAlreadyUsed, d.Status)

	// A used token can no longer be revoked.
	inserted, err := h.authorizer.Revoke(ctx, token, nil)
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestAuthorize_OneTimeUseConcurrent(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "OTU", profile.Definition{OneTimeUse: true}))
	token := h.issue(t, "OTU", "alice", nil)

	const workers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[service.Status]int{}
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := h.authorizer.AuthorizeToken(context.Background(), token, service.DefaultOptions())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			counts[d.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, counts[service.StatusValid])
	require.Equal(t, workers-1, counts[service.StatusAlreadyUsed])
}

func TestRevoke(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	ctx := context.Background()

	token := h.issue(t, "API", "alice", nil)
	id := h.authorizer.Authenticate(token)
	require.NotNil(t, id)

	revoked, err := h.authorizer.IsRevoked(ctx, id.Token, id.Claims)
	require.NoError(t, err)
	require.False(t, revoked)

	inserted, err := h.authorizer.Revoke(ctx, token, id.Claims)
	require.NoError(t, err)
	require.True(t, inserted)

	first, err := h.states.FindState(ctx, token)
	require.NoError(t, err)
	require.True(t, first.IsRevoked)
	require.Equal(t, id.Claims.ExpiresAt.Unix(), first.ExpiresAt.Unix())

	h.clock.Advance(time.Minute)
	inserted, err = h.authorizer.Revoke(ctx, token, id.Claims)
	require.NoError(t, err)
	require.False(t, inserted)

	again, err := h.states.FindState(ctx, token)
	require.NoError(t, err)
	require.Equal(t, first.RevokedAt, again.RevokedAt)

	revoked, err = h.authorizer.IsRevoked(ctx, id.Token, id.Claims)
	require.NoError(t, err)
	require.True(t, revoked)

	d := h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusRevoked, d.Status)
}

func TestRevoke_EnvelopeAndErrors(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "B64", profile.Definition{IsBase64Encoded: true}))
	ctx := context.Background()

	token := h.issue(t, "B64", "alice", nil)
	inserted, err := h.authorizer.Revoke(ctx, token, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	// The state is keyed by the compact form.
	compact, err := jwtx.Decode(token)
	require.NoError(t, err)
	_, err = h.states.FindState(ctx, compact)
	require.NoError(t, err)

	d := h.authorize(t, token, service.DefaultOptions())
	require.Equal(t, service.StatusRevoked, d.Status)

	_, err = h.authorizer.Revoke(ctx, "", nil)
	require.ErrorIs(t, err, service.ErrTokenRequired)

	_, err = h.authorizer.Revoke(ctx, "!!!", nil)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestIsRevokedIsUsed_EmptyInputs(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	ctx := context.Background()

	ok, err := h.authorizer.IsRevoked(ctx, "", &jwtx.Claims{})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = h.authorizer.IsUsed(ctx, "a.b.c", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

type failingStates struct{ store.TokenStates }

func (failingStates) FindState(context.Context, string) (store.TokenState, error) {
	return store.TokenState{}, context.DeadlineExceeded
}

func TestAuthorize_StoreFailurePropagates(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	h.authorizer.States = failingStates{}

	_, err := h.authorizer.AuthorizeToken(context.Background(), h.issue(t, "API", "alice", nil), service.DefaultOptions())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPayloads(t *testing.T) {
	h := newHarness(t, passPhraseProfile(t, "API", profile.Definition{}))
	id := h.authorizer.Authenticate(h.issue(t, "API", "alice", map[string]string{"role": "admin"}))
	require.NotNil(t, id)

	full := service.TokenPayload(id)
	require.Equal(t, "alice", full[jwtx.ClaimName])
	require.Equal(t, "API", full[jwtx.ClaimTokenName])
	require.Equal(t, "admin", full["role"])

	short := service.IdentityPayload(id)
	require.Equal(t, "alice", short["name"])
	require.NotContains(t, short, jwtx.ClaimName)

	require.Nil(t, service.TokenPayload(nil))
	require.Nil(t, service.IdentityPayload(&service.Identity{Token: "x"}))
}

func TestParseList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, service.ParseList(" a, ,b,"))
	require.Nil(t, service.ParseList(""))
}
