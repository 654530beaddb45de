package profile_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/stretchr/testify/require"
)

func minutes(v float64) *float64 { return &v }

func validDefinition() profile.Definition {
	return profile.Definition{
		Issuer:           "https://x.io",
		IntendedAudience: "urn:api:default",
		Signature:        &profile.Signature{PassPhrase: "secret"},
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := profile.New(" api ", validDefinition())
	require.NoError(t, err)
	require.Equal(t, "API", p.Name)
	require.Equal(t, 15.0, p.ExpirationMinutes)
	require.Equal(t, profile.PassPhrase, p.SecurityType)
	require.Equal(t, "HS256", p.Algorithm)
	require.True(t, p.CanIssue())
	require.True(t, p.CanValidate())
}

func TestNew_Certificate(t *testing.T) {
	def := validDefinition()
	def.Signature = &profile.Signature{ValidatingCertificate: "validating.cer"}

	p, err := profile.New("partner", def)
	require.NoError(t, err)
	require.Equal(t, profile.Certificate, p.SecurityType)
	require.Equal(t, "RS256", p.Algorithm)
	require.False(t, p.CanIssue())
	require.True(t, p.CanValidate())
}

func TestNew_PassPhraseWinsOverCertificate(t *testing.T) {
	def := validDefinition()
	def.Signature = &profile.Signature{PassPhrase: "secret", SigningCertificate: "signing.pfx"}
	def.Algorithm = "hs512"

	p, err := profile.New("both", def)
	require.NoError(t, err)
	require.Equal(t, profile.PassPhrase, p.SecurityType)
	require.Equal(t, "HS512", p.Algorithm)
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*profile.Definition)
		field  string
		err    error
	}{
		{"ftp issuer", func(d *profile.Definition) { d.Issuer = "ftp://x.io" }, "issuer", profile.ErrInvalidIssuer},
		{"relative issuer", func(d *profile.Definition) { d.Issuer = "/path" }, "issuer", profile.ErrInvalidIssuer},
		{"empty issuer", func(d *profile.Definition) { d.Issuer = "" }, "issuer", profile.ErrInvalidIssuer},
		{"plain audience", func(d *profile.Definition) { d.IntendedAudience = "api" }, "intendedAudience", profile.ErrInvalidAudience},
		{"urn nid", func(d *profile.Definition) { d.IntendedAudience = "urn:urn:x" }, "intendedAudience", profile.ErrInvalidAudience},
		{"short nid", func(d *profile.Definition) { d.IntendedAudience = "urn:a:x" }, "intendedAudience", profile.ErrInvalidAudience},
		{"bad escape", func(d *profile.Definition) { d.IntendedAudience = "urn:api:%zz" }, "intendedAudience", profile.ErrInvalidAudience},
		{"zero minutes", func(d *profile.Definition) { d.ExpirationInMinute = minutes(0) }, "expirationInMinute", profile.ErrInvalidExpiration},
		{"negative minutes", func(d *profile.Definition) { d.ExpirationInMinute = minutes(-1) }, "expirationInMinute", profile.ErrInvalidExpiration},
		{"no signature", func(d *profile.Definition) { d.Signature = nil }, "signature", profile.ErrMissingSignature},
		{"empty signature", func(d *profile.Definition) { d.Signature = &profile.Signature{} }, "signature", profile.ErrMissingSignature},
		{"rsa with passphrase", func(d *profile.Definition) { d.Algorithm = "RS256" }, "algorithm", profile.ErrInvalidAlgorithm},
		{"hmac with certificate", func(d *profile.Definition) {
			d.Signature = &profile.Signature{SigningCertificate: "signing.pfx"}
			d.Algorithm = "HS256"
		}, "algorithm", profile.ErrInvalidAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)

			_, err := profile.New("api", def)
			require.ErrorIs(t, err, tt.err)

			var ve *profile.ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, "API", ve.Profile)
			require.Equal(t, tt.field, ve.Field)
			require.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNew_EmptyName(t *testing.T) {
	_, err := profile.New("  ", validDefinition())
	require.ErrorIs(t, err, profile.ErrInvalidName)
}

func TestValidateAudience(t *testing.T) {
	for _, ok := range []string{"urn:api:default", "URN:isbn:0451450523", "urn:my-app:a%2Fb", "urn:ab:x(1)+y"} {
		require.NoError(t, profile.ValidateAudience(ok), ok)
	}
	for _, bad := range []string{"", "urn:", "urn:api:", "urn:-api:x", "urn:URN:x", "https://x.io"} {
		require.ErrorIs(t, profile.ValidateAudience(bad), profile.ErrInvalidAudience, bad)
	}
}

func TestValidateIssuer(t *testing.T) {
	require.NoError(t, profile.ValidateIssuer("http://localhost:8080"))
	require.NoError(t, profile.ValidateIssuer("HTTPS://x.io/tenant"))
	require.ErrorIs(t, profile.ValidateIssuer("x.io"), profile.ErrInvalidIssuer)
	require.ErrorIs(t, profile.ValidateIssuer("mailto:a@x.io"), profile.ErrInvalidIssuer)
}
