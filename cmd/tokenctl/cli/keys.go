package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/cryptox"
)

// JWKSCmd prints the JSON Web Key Set
type JWKSCmd struct{}

// Run the command
func (cmd *JWKSCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}
	return c.WriteJSON(a.Keys().JWKS())
}

// GencertCmd generates a signing certificate for a certificate profile
type GencertCmd struct {
	Name string `arg:"" help:"Base file name, writes <name>.pem and <name>.cer"`
	Out  string `help:"Output directory" default:"."`
	CN   string `name:"cn" help:"Certificate common name" default:"tokenkit"`
	Days int    `help:"Validity in days" default:"365"`
	Bits int    `help:"RSA key size" default:"2048"`
}

// Run the command
func (cmd *GencertCmd) Run(c *Cli) error {
	key, err := cryptox.GenerateRSAKey(cmd.Bits)
	if err != nil {
		return err
	}
	cert, err := cryptox.NewSelfSignedCertificate(key, cmd.CN, time.Duration(cmd.Days)*24*time.Hour)
	if err != nil {
		return err
	}
	keyPEM, err := cryptox.EncodePrivateKeyPEM(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cmd.Out, 0o750); err != nil {
		return err
	}
	signing := filepath.Join(cmd.Out, cmd.Name+".pem")
	validating := filepath.Join(cmd.Out, cmd.Name+".cer")

	if err := os.WriteFile(signing, cryptox.Bundle(cryptox.EncodeCertificatePEM(cert), keyPEM), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", signing, err)
	}
	if err := os.WriteFile(validating, cert.Raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", validating, err)
	}

	return c.WriteJSON(map[string]string{
		"signingCertificate":    signing,
		"validatingCertificate": validating,
	})
}

// SecretCmd prints a random pass-phrase
type SecretCmd struct {
	Size int `help:"Entropy in bytes" default:"32"`
}

// Run the command
func (cmd *SecretCmd) Run(c *Cli) error {
	secret, err := cryptox.GenerateSecret(cmd.Size)
	if err != nil {
		return err
	}
	c.Println(secret)
	return nil
}

// ServeCmd runs the HTTP API until interrupted
type ServeCmd struct {
	Port int `help:"HTTP port" env:"PORT" default:"8080"`
}
