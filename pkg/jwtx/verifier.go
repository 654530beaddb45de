package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string, opts VerifyOptions) (*Claims, error)
}

// VerifyOptions captures the optional claim checks. Signature verification
// always happens; everything else only when asked for.
type VerifyOptions struct {
	// Issuers accepted in claims.iss. Empty means "don't care".
	Issuers []string

	// Audiences of which claims.aud must contain one. Empty means "don't care".
	Audiences []string

	// ValidateLifetime enforces exp and nbf with zero clock skew.
	ValidateLifetime bool

	// Now overrides the clock used for lifetime checks.
	Now func() time.Time
}

func (o VerifyOptions) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Key is a verification key bound to the profile it belongs to. Material is
// the HMAC secret ([]byte) or an *rsa.PublicKey.
type Key struct {
	ID       string
	Alg      string
	Material any
}

// NewHMACKey returns the verification key for an HMAC secret.
func NewHMACKey(id, alg string, secret []byte) (Key, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return Key{}, err
	}
	if len(secret) == 0 {
		return Key{}, errors.New("jwtx: empty HMAC key")
	}
	return Key{ID: id, Alg: method.Alg(), Material: secret}, nil
}

// NewRSAKey returns the RS256 verification key for an RSA public key.
func NewRSAKey(id string, pub *rsa.PublicKey) (Key, error) {
	if pub == nil {
		return Key{}, errors.New("jwtx: nil RSA key")
	}
	return Key{ID: id, Alg: AlgorithmRS256, Material: pub}, nil
}

// Verify checks the signature of tokenStr with k and then applies the
// requested claim checks: lifetime, audience, issuer.
func (k Key) Verify(tokenStr string, opts VerifyOptions) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{k.Alg}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		switch key := k.Material.(type) {
		case []byte:
			return key, nil
		case *rsa.PublicKey:
			return key, nil
		default:
			return nil, fmt.Errorf("jwtx: unsupported key type %T", k.Material)
		}
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("jwtx: invalid token claims")
	}

	// Now check all the claim requirements
	if opts.ValidateLifetime {
		if err := claims.ValidateExpiryAt(opts.now()); err != nil {
			return nil, err
		}
	}
	if err := claims.ValidateAudience(opts.Audiences); err != nil {
		return nil, err
	}
	if err := claims.ValidateIssuer(opts.Issuers); err != nil {
		return nil, err
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	default:
		return fmt.Errorf("jwtx: parse or verify: %w", err)
	}
}

// PeekHeader returns the alg and kid header values without verifying
// anything.
func PeekHeader(tokenStr string) (alg, kid string, err error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	alg, _ = token.Header["alg"].(string)
	kid, _ = token.Header["kid"].(string)
	return alg, kid, nil
}

// PeekClaims decodes the claims without verifying the signature. Only use
// the result to pick the key that verifies the token.
func PeekClaims(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return claims, nil
}
