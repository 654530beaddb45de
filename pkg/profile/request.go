package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
)

// Limits applied to issuance requests.
const (
	MaxNameLength     = 16
	MaxIdentityLength = 64
)

// KeyValue is one custom claim as supplied by a caller.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ValidateName checks a requested profile name: present, short enough and
// registered.
func (r *Registry) ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(name, "name", "", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid(name, "name", name, ErrNameTooLong)
	}
	if !r.Has(name) {
		return invalid(name, "name", name, ErrNotFound)
	}
	return nil
}

// ValidateIdentity checks the identity a token is requested for.
func ValidateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return ErrIdentityRequired
	}
	if utf8.RuneCountInString(identity) > MaxIdentityLength {
		return ErrIdentityTooLong
	}
	return nil
}

// ValidatePayload checks caller supplied claims: no empty keys or values, no
// key twice and no reserved claim names.
func ValidatePayload(payload []KeyValue) error {
	seen := make(map[string]struct{}, len(payload))
	for _, kv := range payload {
		if err := validateClaim(kv.Key, kv.Value); err != nil {
			return err
		}
		if _, dup := seen[kv.Key]; dup {
			return invalid("", "claim", kv.Key, ErrDuplicateClaim)
		}
		seen[kv.Key] = struct{}{}
	}
	return nil
}

// ValidateCustomClaims applies the payload rules to a claim map.
func ValidateCustomClaims(claims map[string]string) error {
	for k, v := range claims {
		if err := validateClaim(k, v); err != nil {
			return err
		}
	}
	return nil
}

// PayloadMap converts a validated payload into a claim map.
func PayloadMap(payload []KeyValue) map[string]string {
	if len(payload) == 0 {
		return nil
	}
	m := make(map[string]string, len(payload))
	for _, kv := range payload {
		m[kv.Key] = kv.Value
	}
	return m
}

func validateClaim(key, value string) error {
	if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
		return invalid("", "claim", key, ErrEmptyClaim)
	}
	if jwtx.IsReserved(key) {
		return invalid("", "claim", key, ErrReservedClaim)
	}
	return nil
}
