package jwtx

import (
	"crypto/rsa"
	"errors"
	"slices"
	"strings"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the verification keys of every profile, keyed by profile
// name. It's thread-safe and is usually filled once at startup.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]Key
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		keys: make(map[string]Key),
	}
}

// Add registers a key, replacing any key with the same ID.
func (k *KeySet) Add(key Key) error {
	if key.ID == "" {
		return errors.New("jwtx: key without id")
	}
	if key.Material == nil {
		return errors.New("jwtx: key without material")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[strings.ToUpper(key.ID)] = key
	return nil
}

// Get returns the key registered for id (case-insensitive).
func (k *KeySet) Get(id string) (Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[strings.ToUpper(id)]; ok {
		return key, nil
	}
	return Key{}, ErrNoKey
}

// Keys returns a snapshot of every key ordered by ID.
func (k *KeySet) Keys() []Key {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Key, 0, len(k.keys))
	for _, key := range k.keys {
		out = append(out, key)
	}
	slices.SortFunc(out, func(a, b Key) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of keys.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	return k.Len() > 0
}

// Verify checks tokenStr against the aggregate of all keys. The key named by
// the kid header is tried first, then every other key of the same
// algorithm. Claim checks follow opts once a signature matches.
func (k *KeySet) Verify(tokenStr string, opts VerifyOptions) (*Claims, error) {
	alg, kid, err := PeekHeader(tokenStr)
	if err != nil {
		return nil, err
	}

	var candidates []Key
	if kid != "" {
		if key, err := k.Get(kid); err == nil && key.Alg == alg {
			candidates = append(candidates, key)
		}
	}
	for _, key := range k.Keys() {
		if key.Alg != alg || (len(candidates) > 0 && key.ID == candidates[0].ID) {
			continue
		}
		candidates = append(candidates, key)
	}
	if len(candidates) == 0 {
		return nil, ErrUnknownKID
	}

	var lastErr error
	for _, key := range candidates {
		claims, err := key.Verify(tokenStr, opts)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, ErrInvalidSig) {
			// Signature matched, a claim check failed.
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// JWKS returns the public RSA keys as a JSON Web Key Set. HMAC secrets are
// never published.
func (k *KeySet) JWKS() JWKS {
	jwks := JWKS{Keys: []JWK{}}
	for _, key := range k.Keys() {
		if pub, ok := key.Material.(*rsa.PublicKey); ok {
			jwks.Keys = append(jwks.Keys, NewRSAJWK(key.ID, "sig", key.Alg, pub))
		}
	}
	return jwks
}
