package jwtx

import (
	"encoding/base64"
	"strings"
)

// PaddingMarker replaces each "=" of base64 padding so an enveloped token
// can travel in a URL path segment.
const PaddingMarker = "EQUAL"

// Encode wraps a compact token in standard base64 and substitutes the
// trailing padding with PaddingMarker.
func Encode(token string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(token))
	trimmed := strings.TrimRight(enc, "=")
	return trimmed + strings.Repeat(PaddingMarker, len(enc)-len(trimmed))
}

// Decode reverses Encode. The body of the base64 text may itself end in
// "EQUAL", so every padding count is tried and only a candidate that
// encodes back to s and looks like a compact JWS is accepted.
func Decode(s string) (string, error) {
	for pad := 0; pad <= 2; pad++ {
		suffix := strings.Repeat(PaddingMarker, pad)
		if !strings.HasSuffix(s, suffix) {
			continue
		}
		candidate := strings.TrimSuffix(s, suffix) + strings.Repeat("=", pad)
		b, err := base64.StdEncoding.DecodeString(candidate)
		if err != nil {
			continue
		}
		token := string(b)
		if IsCompact(token) && Encode(token) == s {
			return token, nil
		}
	}
	return "", ErrMalformed
}

// Unwrap returns raw unchanged when it already is a compact token,
// otherwise it decodes the base64 envelope.
func Unwrap(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformed
	}
	if IsCompact(raw) {
		return raw, nil
	}
	return Decode(raw)
}

// IsCompact reports whether s has the header.payload.signature shape with
// base64url segments.
func IsCompact(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return false
	}
	for _, p := range parts {
		for i := 0; i < len(p); i++ {
			c := p[i]
			switch {
			case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}
