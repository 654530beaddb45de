package service

import "github.com/aussiebroadwan/tokenkit/pkg/jwtx"

// Status is the outcome of an authorization attempt.
type Status string

const (
	StatusValid           Status = "Valid"
	StatusAlreadyUsed     Status = "AlreadyUsed"
	StatusExpired         Status = "Expired"
	StatusInvalid         Status = "Invalid"
	StatusInvalidAudience Status = "InvalidAudience"
	StatusTokenRequired   Status = "TokenRequired"
	StatusRevoked         Status = "Revoked"
)

// Decision is what Authorize hands back to the transport layer.
type Decision struct {
	Status Status       `json:"status"`
	Claims *jwtx.Claims `json:"claims,omitempty"`

	// Profile that verified the token, empty when it never got that far.
	Profile string `json:"profile,omitempty"`

	// Anonymous is set when no identity was presented at all.
	Anonymous bool `json:"-"`
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Status == StatusValid }
