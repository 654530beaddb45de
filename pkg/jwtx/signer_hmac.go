package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HMACSigner implements the Signer interface using a shared secret.
type HMACSigner struct {
	kid    string
	key    []byte
	method *jwt.SigningMethodHMAC
}

func (s *HMACSigner) Alg() string { return s.method.Alg() }
func (s *HMACSigner) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.key)
}

// Validate makes sure there is a secret to sign with.
func (s *HMACSigner) Validate() error {
	if len(s.key) == 0 {
		return errors.New("jwtx: empty HMAC key")
	}
	if s.method == nil {
		return errors.New("jwtx: nil HMAC method")
	}
	return nil
}
