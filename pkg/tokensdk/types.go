package tokensdk

import (
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
)

// ============================================================================
// Token Types
// ============================================================================

// CreateTokenRequest is the body of POST /v1/sdk/createToken.
type CreateTokenRequest struct {
	// Name of the profile to issue for. Case-insensitive, at most 16 runes.
	Name string `json:"name"`

	// UniqueID becomes the identity of the token: a user name, an email
	// address or any other unique identifier. At most 64 runes.
	UniqueID string `json:"uniqueId"`

	// Payload holds custom claims. Keys must be unique, non-empty and not
	// reserved; values must be non-empty.
	Payload []profile.KeyValue `json:"payload,omitempty"`
}

// CreateTokenResponse carries a freshly issued token.
type CreateTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// RevokeTokenResponse reports whether the revocation was recorded. False
// means the token already had a state record.
type RevokeTokenResponse struct {
	Revoked bool `json:"revoked"`
}

// ValidateTokenResponse is returned for a token that passed authorization.
type ValidateTokenResponse struct {
	Status  string            `json:"status"`
	Profile string            `json:"profile"`
	Claims  map[string]string `json:"claims"`
}

// StatusResponse is the body of a refused authorization.
type StatusResponse struct {
	Status string `json:"status"`
}

// ValidationErrorResponse lists every problem of a rejected request.
type ValidationErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ============================================================================
// Information Types
// ============================================================================

// Info describes the running library and the profiles it serves.
type Info struct {
	Library  LibraryInfo   `json:"library"`
	Profiles []ProfileInfo `json:"availableTokens"`
	Packages []PackageInfo `json:"packages,omitempty"`
}

// LibraryInfo names the library build.
type LibraryInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
	GoVersion   string `json:"goVersion,omitempty"`
	License     string `json:"license"`
}

// ProfileInfo is the public view of a profile. Secrets and certificate
// passwords are never included.
type ProfileInfo struct {
	Name              string  `json:"tokenName"`
	Issuer            string  `json:"issuer"`
	Audience          string  `json:"intendedAudience"`
	ExpirationMinutes float64 `json:"expirationInMinute"`
	Base64Encoded     bool    `json:"isBase64Encoded"`
	OneTimeUse        bool    `json:"oneTimeUse"`
	SecurityType      string  `json:"securityType"`
	Algorithm         string  `json:"algorithm"`
	CanIssue          bool    `json:"canIssue"`
	CanValidate       bool    `json:"canValidate"`
}

// PackageInfo is one module dependency of the build.
type PackageInfo struct {
	Path    string `json:"name"`
	Version string `json:"version"`
}

// NewProfileInfo builds the public view of p.
func NewProfileInfo(p profile.Profile) ProfileInfo {
	return ProfileInfo{
		Name:              p.Name,
		Issuer:            p.Issuer,
		Audience:          p.Audience,
		ExpirationMinutes: p.ExpirationMinutes,
		Base64Encoded:     p.Base64Encoded,
		OneTimeUse:        p.OneTimeUse,
		SecurityType:      string(p.SecurityType),
		Algorithm:         p.Algorithm,
		CanIssue:          p.CanIssue(),
		CanValidate:       p.CanValidate(),
	}
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds the readiness of each dependency.
type HealthChecks struct {
	Store string `json:"store"`
	Keys  string `json:"keys"`
}
