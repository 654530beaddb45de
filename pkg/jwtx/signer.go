package jwtx

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Supported signing algorithms.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmHS384 = "HS384"
	AlgorithmHS512 = "HS512"
	AlgorithmRS256 = "RS256"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHMAC creates an HMAC signer for one of the HS algorithms. The
// algorithm name is case-insensitive; empty means HS256.
func NewSignerHMAC(kid, alg string, key []byte) (Signer, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	s := &HMACSigner{kid: kid, key: key, method: method}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSignerRS256 creates an RS256 signer from an RSA private key.
func NewSignerRS256(kid string, key *rsa.PrivateKey) (Signer, error) {
	s := &RS256Signer{kid: kid, key: key}
	if key != nil {
		s.pub = &key.PublicKey
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// IsHMAC reports whether alg names one of the HS algorithms.
func IsHMAC(alg string) bool {
	_, err := hmacMethod(alg)
	return err == nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(alg) {
	case "", AlgorithmHS256:
		return jwt.SigningMethodHS256, nil
	case AlgorithmHS384:
		return jwt.SigningMethodHS384, nil
	case AlgorithmHS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported HMAC algorithm %q", alg)
	}
}
