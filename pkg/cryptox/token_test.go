package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"256-bit secret", SecretSize256, 43},
		{"512-bit secret", SecretSize512, 86},
		{"custom size", 24, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := GenerateSecret(tt.size)
			require.NoError(t, err)
			require.Len(t, secret, tt.wantLen)

			other, err := GenerateSecret(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, secret, other, "secrets should be unique")

			decoded, err := base64.RawURLEncoding.DecodeString(secret)
			require.NoError(t, err)
			require.Len(t, decoded, tt.size)
		})
	}
}

func TestGenerateSecret_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := GenerateSecret(size)
		require.Error(t, err)
	}
}

func TestFingerprintToken(t *testing.T) {
	a := FingerprintToken("header.payload.signature")
	require.Len(t, a, 43)
	require.Equal(t, a, FingerprintToken("header.payload.signature"))
	require.NotEqual(t, a, FingerprintToken("header.payload.signaturf"))
}

func TestDerivePassphraseKey(t *testing.T) {
	// base64("secret") is "c2VjcmV0"; the key is those ASCII bytes.
	require.Equal(t, []byte("c2VjcmV0"), DerivePassphraseKey("secret"))
	require.Equal(t, []byte("w6lsw6l2ZQ=="), DerivePassphraseKey("éléve"))
	require.Empty(t, DerivePassphraseKey(""))
}
