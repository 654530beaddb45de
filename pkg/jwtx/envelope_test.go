package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	signer, err := jwtx.NewSignerHMAC("API", jwtx.AlgorithmHS256, []byte("secret"))
	require.NoError(t, err)

	seen := map[int]bool{}
	for i := 0; i < 64; i++ {
		custom := map[string]string{"pad": strings.Repeat("x", i%7)}
		token, err := signer.Sign(jwtx.NewClaims("API", "alice", exampleIssuer, nil, 15, false, custom, time.Now()))
		require.NoError(t, err)

		enc := jwtx.Encode(token)
		require.NotContains(t, enc, "=")
		seen[strings.Count(enc, jwtx.PaddingMarker)] = true

		dec, err := jwtx.Decode(enc)
		require.NoError(t, err)
		require.Equal(t, token, dec)

		got, err := jwtx.Unwrap(enc)
		require.NoError(t, err)
		require.Equal(t, token, got)
	}
	require.Len(t, seen, 3)
}

func TestEnvelope_PaddingMarker(t *testing.T) {
	// "a.b.c" encodes to "YS5iLmM=" so one marker replaces the padding.
	require.Equal(t, "YS5iLmMEQUAL", jwtx.Encode("a.b.c"))
	dec, err := jwtx.Decode("YS5iLmMEQUAL")
	require.NoError(t, err)
	require.Equal(t, "a.b.c", dec)

	// "ab.cd.e" has two padding characters.
	require.Equal(t, "YWIuY2QuZQEQUALEQUAL", jwtx.Encode("ab.cd.e"))
	dec, err = jwtx.Decode("YWIuY2QuZQEQUALEQUAL")
	require.NoError(t, err)
	require.Equal(t, "ab.cd.e", dec)
}

func TestUnwrap(t *testing.T) {
	got, err := jwtx.Unwrap("  a.b.c ")
	require.NoError(t, err)
	require.Equal(t, "a.b.c", got)

	_, err = jwtx.Unwrap("")
	require.ErrorIs(t, err, jwtx.ErrMalformed)

	_, err = jwtx.Unwrap("!!!not base64")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestIsCompact(t *testing.T) {
	require.True(t, jwtx.IsCompact("aGVhZA.cGF5.c2ln"))
	require.True(t, jwtx.IsCompact("aGVhZA.cGF5."))
	require.False(t, jwtx.IsCompact("a.b"))
	require.False(t, jwtx.IsCompact(".b.c"))
	require.False(t, jwtx.IsCompact("a.b.c=="))
}
