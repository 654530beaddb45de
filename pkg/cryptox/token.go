package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Secret size constants (in bytes before encoding).
const (
	// SecretSize256 provides 256 bits of entropy (43 chars base64url).
	SecretSize256 = 32
	// SecretSize512 provides 512 bits of entropy (86 chars base64url).
	SecretSize512 = 64
)

// GenerateSecret creates a cryptographically secure random string of the
// given byte length, base64url-encoded without padding. Used to mint new
// profile pass-phrases.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Stores use it as a fixed-size lookup key instead of the token itself.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// DerivePassphraseKey turns a profile pass-phrase into HMAC key bytes: the
// UTF-8 pass-phrase is base64-encoded and the ASCII of that encoding is the
// key. Tokens issued by other implementations of the same profile depend on
// this exact derivation.
func DerivePassphraseKey(passphrase string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(passphrase)))
}
