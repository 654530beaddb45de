package profile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("profile: not found")
	ErrInvalidName       = errors.New("profile: invalid name")
	ErrNameTooLong       = errors.New("profile: name too long")
	ErrInvalidIssuer     = errors.New("profile: issuer must be an absolute http(s) URL")
	ErrInvalidAudience   = errors.New("profile: audience must be a URN")
	ErrInvalidExpiration = errors.New("profile: expiration must be a positive number of minutes")
	ErrInvalidAlgorithm  = errors.New("profile: unsupported algorithm")
	ErrMissingSignature  = errors.New("profile: signature requires a pass-phrase or a certificate")

	ErrIdentityRequired = errors.New("profile: identity required")
	ErrIdentityTooLong  = errors.New("profile: identity too long")
	ErrEmptyClaim       = errors.New("profile: claim key and value must not be empty")
	ErrDuplicateClaim   = errors.New("profile: duplicated claim")
	ErrReservedClaim    = errors.New("profile: reserved claim")
)

// ValidationError reports which profile field failed validation and where
// it came from.
type ValidationError struct {
	File    string
	Profile string
	Field   string
	Value   string
	Err     error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("profile: ")
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Profile != "" {
		fmt.Fprintf(&b, "profile %q: ", e.Profile)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %s", e.Field)
		if e.Value != "" {
			fmt.Fprintf(&b, " (%q)", e.Value)
		}
		b.WriteString(": ")
	}
	b.WriteString(strings.TrimPrefix(e.Err.Error(), "profile: "))
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(name, field, value string, err error) *ValidationError {
	return &ValidationError{Profile: name, Field: field, Value: value, Err: err}
}
