// Package keyring resolves the signing and verification material of every
// profile once, at startup.
package keyring

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aussiebroadwan/tokenkit/pkg/cryptox"
	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
)

var (
	ErrNoMaterial   = errors.New("keyring: no material for profile")
	ErrCannotSign   = errors.New("keyring: profile has no signing credential")
	ErrCannotVerify = errors.New("keyring: profile has no validating credential")
)

// NotFoundError names a certificate file that could not be located.
type NotFoundError struct {
	Profile string
	File    string
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("keyring: profile %q: certificate %q not found", e.Profile, e.File)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return os.ErrNotExist
}

// Material is the resolved key material of one profile. Signer is nil for a
// validate-only profile and Verifier is nil for an issue-only one.
type Material struct {
	Profile  string
	Signer   jwtx.Signer
	Verifier *jwtx.Key
}

// Keyring holds the material of all profiles. Read-only after Resolve.
type Keyring struct {
	material map[string]Material
	keys     *jwtx.KeySet
}

// Options configures Resolve.
type Options struct {
	// Root is searched recursively for certificate files.
	Root string

	Logger *slog.Logger
}

// Resolve derives the material of every profile in reg. The first failure
// aborts.
func Resolve(reg *profile.Registry, opts Options) (*Keyring, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	k := &Keyring{
		material: make(map[string]Material, reg.Len()),
		keys:     jwtx.NewKeySet(),
	}

	for _, p := range reg.All() {
		m, err := ResolveProfile(p, opts.Root)
		if err != nil {
			return nil, err
		}
		if m.Verifier != nil {
			if err := k.keys.Add(*m.Verifier); err != nil {
				return nil, fmt.Errorf("keyring: profile %q: %w", p.Name, err)
			}
		}
		k.material[p.Name] = m

		logger.Debug("key material resolved",
			slog.String("profile", p.Name),
			slog.String("security_type", string(p.SecurityType)),
			slog.String("alg", p.Algorithm),
			slog.Bool("can_sign", m.Signer != nil),
			slog.Bool("can_verify", m.Verifier != nil),
		)
	}

	return k, nil
}

// ResolveProfile derives the material of a single profile.
func ResolveProfile(p profile.Profile, root string) (Material, error) {
	m := Material{Profile: p.Name}

	if p.SecurityType == profile.PassPhrase {
		secret := cryptox.DerivePassphraseKey(p.Signature.PassPhrase)

		signer, err := jwtx.NewSignerHMAC(p.Name, p.Algorithm, secret)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: %w", p.Name, err)
		}
		key, err := jwtx.NewHMACKey(p.Name, p.Algorithm, secret)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: %w", p.Name, err)
		}
		m.Signer = signer
		m.Verifier = &key
		return m, nil
	}

	if name := p.Signature.SigningCertificate; name != "" {
		path, err := findCertificate(p.Name, root, name)
		if err != nil {
			return Material{}, err
		}
		_, priv, err := cryptox.LoadSigningCertificate(path, p.Signature.SigningCertificatePassword)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: signing certificate: %w", p.Name, err)
		}
		signer, err := jwtx.NewSignerRS256(p.Name, priv)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: %w", p.Name, err)
		}
		m.Signer = signer
	}

	if name := p.Signature.ValidatingCertificate; name != "" {
		path, err := findCertificate(p.Name, root, name)
		if err != nil {
			return Material{}, err
		}
		cert, err := cryptox.LoadCertificate(path)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: validating certificate: %w", p.Name, err)
		}
		pub, err := cryptox.RSAPublicKey(cert)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: validating certificate: %w", p.Name, err)
		}
		key, err := jwtx.NewRSAKey(p.Name, pub)
		if err != nil {
			return Material{}, fmt.Errorf("keyring: profile %q: %w", p.Name, err)
		}
		m.Verifier = &key
	}

	if m.Signer == nil && m.Verifier == nil {
		return Material{}, fmt.Errorf("%w %q", ErrNoMaterial, p.Name)
	}
	return m, nil
}

func findCertificate(profileName, root, name string) (string, error) {
	path, err := cryptox.FindFile(root, name)
	if err != nil {
		return "", &NotFoundError{Profile: profileName, File: name, Err: err}
	}
	return path, nil
}

// Material returns the material of the named profile.
func (k *Keyring) Material(name string) (Material, error) {
	m, ok := k.material[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Material{}, fmt.Errorf("%w %q", ErrNoMaterial, name)
	}
	return m, nil
}

// Signer returns the signing credential of the named profile.
func (k *Keyring) Signer(name string) (jwtx.Signer, error) {
	m, err := k.Material(name)
	if err != nil {
		return nil, err
	}
	if m.Signer == nil {
		return nil, fmt.Errorf("%w: %q", ErrCannotSign, m.Profile)
	}
	return m.Signer, nil
}

// VerificationKey returns the validating credential of the named profile.
func (k *Keyring) VerificationKey(name string) (jwtx.Key, error) {
	m, err := k.Material(name)
	if err != nil {
		return jwtx.Key{}, err
	}
	if m.Verifier == nil {
		return jwtx.Key{}, fmt.Errorf("%w: %q", ErrCannotVerify, m.Profile)
	}
	return *m.Verifier, nil
}

// KeySet returns the aggregate verification keys of all profiles.
func (k *Keyring) KeySet() *jwtx.KeySet { return k.keys }

// JWKS returns the public keys of certificate profiles.
func (k *Keyring) JWKS() jwtx.JWKS { return k.keys.JWKS() }

// Len returns the number of profiles with material.
func (k *Keyring) Len() int { return len(k.material) }
