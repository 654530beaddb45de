package jwtx

import (
	"encoding/json"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpirationMinutes is the lifetime applied to a profile that does
// not configure one.
const DefaultExpirationMinutes = 15

// Claim names carried by every issued token.
const (
	ClaimName          = "unique_name"
	ClaimPrimarySID    = "primarysid"
	ClaimTokenName     = "tn"
	ClaimExpireMinutes = "exm"
	ClaimOneTimeUse    = "otu"
)

// reserved lists every claim a caller can never set through custom claims.
var reserved = []string{
	"nbf", "exp", "iat", "iss", "aud", "jti", "sub",
	ClaimExpireMinutes, ClaimTokenName, ClaimOneTimeUse,
	ClaimName, ClaimPrimarySID,
}

// ReservedClaims returns a copy of the reserved claim names.
func ReservedClaims() []string {
	return slices.Clone(reserved)
}

// IsReserved reports whether name is a reserved claim.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}

// Claims are the claims of a profile token. Custom claims are flattened into
// the top level of the payload next to the reserved ones.
type Claims struct {
	jwt.RegisteredClaims

	// Identity name, duplicated under sub, unique_name and primarysid.
	Name       string `json:"unique_name,omitempty"`
	PrimarySID string `json:"primarysid,omitempty"`

	// Profile the token was issued for.
	TokenName string `json:"tn,omitempty"`

	// Expiration minutes and one time use flag, both stringified.
	ExpirationMinutes string `json:"exm,omitempty"`
	OneTimeUse        string `json:"otu,omitempty"`

	Custom map[string]string `json:"-"`
}

// NewClaims builds the claims for a token issued against a profile. Custom
// claims colliding with a reserved name are dropped.
func NewClaims(
	tokenName, identity string,
	issuer string,
	audience []string,
	minutes float64,
	oneTimeUse bool,
	custom map[string]string,
	now time.Time,
) Claims {
	ttl := time.Duration(minutes * float64(time.Minute))

	var extra map[string]string
	for k, v := range custom {
		if IsReserved(k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]string, len(custom))
		}
		extra[k] = v
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Name:              identity,
		PrimarySID:        identity,
		TokenName:         tokenName,
		ExpirationMinutes: strconv.FormatFloat(minutes, 'f', -1, 64),
		OneTimeUse:        strconv.FormatBool(oneTimeUse),
		Custom:            extra,
	}
}

// NewJTI returns a random UUID for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Identity returns the identity name carried by the token.
func (c *Claims) Identity() string {
	if c.Name != "" {
		return c.Name
	}
	if c.PrimarySID != "" {
		return c.PrimarySID
	}
	return c.Subject
}

// IsOneTimeUse reports whether the otu claim is set to true.
func (c *Claims) IsOneTimeUse() bool {
	v, err := strconv.ParseBool(c.OneTimeUse)
	return err == nil && v
}

// ValidateIssuer checks if the issuer is one of the expected values.
func (c *Claims) ValidateIssuer(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	if slices.Contains(expected, c.Issuer) {
		return nil
	}
	return ErrIssuer
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryAt checks exp and nbf against now with no clock skew. A
// token without exp is rejected since the lifetime was asked for.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}

	// Check expired (exp)
	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// Map returns every claim as a string, keyed by its claim name.
func (c *Claims) Map() map[string]string {
	m := make(map[string]string, len(reserved)+len(c.Custom))
	for k, v := range c.Custom {
		m[k] = v
	}

	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	putDate := func(k string, d *jwt.NumericDate) {
		if d != nil {
			m[k] = strconv.FormatInt(d.Unix(), 10)
		}
	}

	put("iss", c.Issuer)
	put("sub", c.Subject)
	put("jti", c.ID)
	if len(c.Audience) > 0 {
		m["aud"] = c.Audience[0]
	}
	putDate("exp", c.ExpiresAt)
	putDate("nbf", c.NotBefore)
	putDate("iat", c.IssuedAt)
	put(ClaimName, c.Name)
	put(ClaimPrimarySID, c.PrimarySID)
	put(ClaimTokenName, c.TokenName)
	put(ClaimExpireMinutes, c.ExpirationMinutes)
	put(ClaimOneTimeUse, c.OneTimeUse)

	return m
}

// MarshalJSON writes the registered and profile claims followed by the
// custom ones at the same level.
func (c Claims) MarshalJSON() ([]byte, error) {
	type alias Claims
	base, err := json.Marshal(alias(c))
	if err != nil || len(c.Custom) == 0 {
		return base, err
	}

	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range c.Custom {
		if IsReserved(k) {
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the known claims and collects everything else into
// Custom. Non-string custom values keep their raw JSON text.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type alias Claims
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var custom map[string]string
	for k, v := range raw {
		if IsReserved(k) {
			continue
		}
		if custom == nil {
			custom = make(map[string]string)
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			custom[k] = s
		} else {
			custom[k] = string(v)
		}
	}

	*c = Claims(a)
	c.Custom = custom
	return nil
}
