// Package profile loads token profile definitions and keeps them in an
// immutable, case-insensitive registry.
package profile

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
)

// SecurityType selects where a profile gets its key material from.
type SecurityType string

const (
	PassPhrase  SecurityType = "PassPhrase"
	Certificate SecurityType = "Certificate"
)

// Signature names the key material of a profile.
type Signature struct {
	PassPhrase                 string `yaml:"passPhrase,omitempty" json:"passPhrase,omitempty"`
	SigningCertificate         string `yaml:"signingCertificate,omitempty" json:"signingCertificate,omitempty"`
	SigningCertificatePassword string `yaml:"signingCertificatePassword,omitempty" json:"signingCertificatePassword,omitempty"`
	ValidatingCertificate      string `yaml:"validatingCertificate,omitempty" json:"validatingCertificate,omitempty"`
}

// Definition is a profile as written in a definition file.
type Definition struct {
	Issuer             string     `yaml:"issuer" json:"issuer"`
	IntendedAudience   string     `yaml:"intendedAudience" json:"intendedAudience"`
	ExpirationInMinute *float64   `yaml:"expirationInMinute,omitempty" json:"expirationInMinute,omitempty"`
	IsBase64Encoded    bool       `yaml:"isBase64Encoded,omitempty" json:"isBase64Encoded,omitempty"`
	OneTimeUse         bool       `yaml:"oneTimeUse,omitempty" json:"oneTimeUse,omitempty"`
	Algorithm          string     `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
	Signature          *Signature `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// Profile is a validated token profile. Values are immutable once built.
type Profile struct {
	Name              string
	Issuer            string
	Audience          string
	ExpirationMinutes float64
	Base64Encoded     bool
	OneTimeUse        bool
	SecurityType      SecurityType
	Algorithm         string
	Signature         Signature
}

// The NID may not itself start with "urn:"; RE2 has no look-ahead so that
// part is checked separately.
var audienceRE = regexp.MustCompile(`^[uU][rR][nN]:[a-zA-Z0-9][a-zA-Z0-9-]{1,31}:([a-zA-Z0-9()+,._!*':=@;$-]|%[0-9a-fA-F]{2})+$`)

// New validates def and builds the profile called name. Failures are
// *ValidationError values naming the offending field.
func New(name string, def Definition) (Profile, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return Profile{}, invalid(name, "name", "", ErrInvalidName)
	}

	if err := ValidateIssuer(def.Issuer); err != nil {
		return Profile{}, invalid(name, "issuer", def.Issuer, err)
	}
	if err := ValidateAudience(def.IntendedAudience); err != nil {
		return Profile{}, invalid(name, "intendedAudience", def.IntendedAudience, err)
	}

	minutes := float64(jwtx.DefaultExpirationMinutes)
	if def.ExpirationInMinute != nil {
		minutes = *def.ExpirationInMinute
	}
	if !(minutes > 0) {
		return Profile{}, invalid(name, "expirationInMinute", "", ErrInvalidExpiration)
	}

	if def.Signature == nil {
		return Profile{}, invalid(name, "signature", "", ErrMissingSignature)
	}
	sig := *def.Signature

	p := Profile{
		Name:              name,
		Issuer:            def.Issuer,
		Audience:          def.IntendedAudience,
		ExpirationMinutes: minutes,
		Base64Encoded:     def.IsBase64Encoded,
		OneTimeUse:        def.OneTimeUse,
		Signature:         sig,
	}

	alg := strings.ToUpper(strings.TrimSpace(def.Algorithm))
	switch {
	case sig.PassPhrase != "":
		p.SecurityType = PassPhrase
		if alg == "" {
			alg = jwtx.AlgorithmHS256
		}
		if !jwtx.IsHMAC(alg) {
			return Profile{}, invalid(name, "algorithm", def.Algorithm, ErrInvalidAlgorithm)
		}
	case sig.SigningCertificate != "" || sig.ValidatingCertificate != "":
		p.SecurityType = Certificate
		if alg == "" {
			alg = jwtx.AlgorithmRS256
		}
		if alg != jwtx.AlgorithmRS256 {
			return Profile{}, invalid(name, "algorithm", def.Algorithm, ErrInvalidAlgorithm)
		}
	default:
		return Profile{}, invalid(name, "signature", "", ErrMissingSignature)
	}
	p.Algorithm = alg

	return p, nil
}

// ValidateIssuer checks that issuer is an absolute http or https URL.
func ValidateIssuer(issuer string) error {
	u, err := url.Parse(issuer)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidIssuer
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return ErrInvalidIssuer
	}
}

// ValidateAudience checks that audience is a URN of the form urn:<nid>:<nss>.
func ValidateAudience(audience string) error {
	if !audienceRE.MatchString(audience) {
		return ErrInvalidAudience
	}
	if rest := audience[len("urn:"):]; len(rest) >= 4 && strings.EqualFold(rest[:4], "urn:") {
		return ErrInvalidAudience
	}
	return nil
}

// CanIssue reports whether the profile holds material to sign with.
func (p Profile) CanIssue() bool {
	return p.Signature.PassPhrase != "" || p.Signature.SigningCertificate != ""
}

// CanValidate reports whether the profile holds material to verify with.
func (p Profile) CanValidate() bool {
	return p.Signature.PassPhrase != "" || p.Signature.ValidatingCertificate != ""
}
