package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilesYAML = `
tokens:
  - name: api
    definition:
      issuer: https://x.io
      intendedAudience: urn:api:default
      expirationInMinute: 15
      signature:
        passPhrase: secret
  - name: once
    definition:
      issuer: https://x.io
      intendedAudience: urn:api:once
      oneTimeUse: true
      isBase64Encoded: true
      signature:
        passPhrase: other
`

func newTestCli(t *testing.T) (*Cli, *bytes.Buffer) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tokens.yaml"), []byte(profilesYAML), 0o600))

	out := bytes.NewBuffer([]byte{})
	c := &Cli{
		Root:      root,
		Driver:    "sqlite",
		LogLevel:  "error",
		LogFormat: "text",
	}
	c.WithWriter(out).WithErrWriter(bytes.NewBuffer([]byte{}))
	t.Cleanup(func() { _ = c.Close() })
	return c, out
}

func TestContext(t *testing.T) {
	var c Cli

	assert.NotNil(t, c.ErrWriter())
	assert.NotNil(t, c.Writer())
	assert.NotNil(t, c.Context())

	out := bytes.NewBuffer([]byte{})
	c.WithWriter(out)
	require.NoError(t, c.WriteJSON(struct{}{}))
	assert.Equal(t, "{}\n", out.String())
}

func TestParse(t *testing.T) {
	var cl struct {
		Cli

		Issue IssueCmd `cmd:""`
	}

	p, err := kong.New(&cl,
		kong.Name("test"),
		kong.Exit(func(int) { t.Fatalf("unexpected exit()") }),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)

	ctx, err := p.Parse([]string{"--root", "/tmp/profiles", "issue", "api", "alice", "--claim", "role=admin", "--claim", "team=ops"})
	require.NoError(t, err)
	assert.Equal(t, "issue <profile> <identity>", ctx.Command())
	assert.Equal(t, "/tmp/profiles", cl.Root)
	assert.Equal(t, "sqlite", cl.Driver)
	assert.Equal(t, "api", cl.Issue.Profile)
	assert.Equal(t, map[string]string{"role": "admin", "team": "ops"}, cl.Issue.Claim)
}

func TestProfiles(t *testing.T) {
	c, out := newTestCli(t)

	require.NoError(t, (&ProfilesCmd{}).Run(c))
	assert.Contains(t, out.String(), `"API"`)
	assert.Contains(t, out.String(), `"ONCE"`)
}

func TestIssueAuthorizeRevoke(t *testing.T) {
	c, out := newTestCli(t)

	require.NoError(t, (&IssueCmd{Profile: "api", Identity: "alice", Claim: map[string]string{"role": "admin"}}).Run(c))
	token := strings.TrimSpace(out.String())
	require.NotEmpty(t, token)

	decide := func(cmd *AuthorizeCmd) service.Decision {
		out.Reset()
		cmd.Token = token
		require.NoError(t, cmd.Run(c))
		var d service.Decision
		require.NoError(t, json.Unmarshal(out.Bytes(), &d))
		return d
	}

	d := decide(&AuthorizeCmd{})
	assert.Equal(t, service.StatusValid, d.Status)
	assert.Equal(t, "API", d.Profile)
	require.NotNil(t, d.Claims)
	assert.Equal(t, "alice", d.Claims.Subject)

	d = decide(&AuthorizeCmd{Audience: []string{"urn:other"}})
	assert.Equal(t, service.StatusInvalidAudience, d.Status)

	out.Reset()
	require.NoError(t, (&RevokeCmd{Token: token}).Run(c))
	assert.JSONEq(t, `{"revoked":true}`, out.String())

	out.Reset()
	err := (&AuthorizeCmd{Token: token, Strict: true}).Run(c)
	require.ErrorIs(t, err, ErrRefused)
	assert.Contains(t, out.String(), `"Revoked"`)

	out.Reset()
	require.NoError(t, (&CleanupCmd{}).Run(c))
	assert.JSONEq(t, `{"removed":0}`, out.String())
}

func TestIssue_Rejected(t *testing.T) {
	c, _ := newTestCli(t)

	assert.Error(t, (&IssueCmd{Profile: "nope", Identity: "alice"}).Run(c))
	assert.Error(t, (&IssueCmd{Profile: "api", Identity: " "}).Run(c))
	assert.Error(t, (&IssueCmd{Profile: "api", Identity: "alice", Claim: map[string]string{"sub": "mallory"}}).Run(c))
}

func TestIssue_JSON(t *testing.T) {
	c, out := newTestCli(t)

	require.NoError(t, (&IssueCmd{Profile: "once", Identity: "bob", JSON: true}).Run(c))

	var issued service.Issued
	require.NoError(t, json.Unmarshal(out.Bytes(), &issued))
	assert.Equal(t, "ONCE", issued.Profile)
	assert.NotEmpty(t, issued.Token)
	assert.False(t, strings.Contains(issued.Token, "."), "once tokens are enveloped")
}

func TestRevoke_UnknownToken(t *testing.T) {
	c, _ := newTestCli(t)

	err := (&RevokeCmd{Token: "not-a-token"}).Run(c)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestGencert(t *testing.T) {
	var c Cli
	out := bytes.NewBuffer([]byte{})
	c.WithWriter(out)

	dir := t.TempDir()
	require.NoError(t, (&GencertCmd{Name: "signing", Out: dir, CN: "test", Days: 1, Bits: 2048}).Run(&c))

	assert.FileExists(t, filepath.Join(dir, "signing.pem"))
	assert.FileExists(t, filepath.Join(dir, "signing.cer"))
	assert.Contains(t, out.String(), "signingCertificate")

	pem, err := os.ReadFile(filepath.Join(dir, "signing.pem"))
	require.NoError(t, err)
	assert.Contains(t, string(pem), "BEGIN CERTIFICATE")
}

func TestSecret(t *testing.T) {
	var c Cli
	out := bytes.NewBuffer([]byte{})
	c.WithWriter(out)

	require.NoError(t, (&SecretCmd{Size: 32}).Run(&c))
	first := strings.TrimSpace(out.String())
	assert.NotEmpty(t, first)

	out.Reset()
	require.NoError(t, (&SecretCmd{Size: 32}).Run(&c))
	assert.NotEqual(t, first, strings.TrimSpace(out.String()))
}

func TestJWKS_PassPhraseOnly(t *testing.T) {
	c, out := newTestCli(t)

	require.NoError(t, (&JWKSCmd{}).Run(c))
	assert.JSONEq(t, `{"keys":[]}`, out.String())
}
