package cryptox

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// FindFile locates name under root. A name that already points at an
// existing file (absolute, or relative to root) is used as is; otherwise
// root is searched recursively for a file with that base name, in lexical
// order. The error wraps os.ErrNotExist when nothing matches.
func FindFile(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("cryptox: empty file name: %w", os.ErrNotExist)
	}

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(root, name))
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}

	base := filepath.Base(name)
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), base) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("cryptox: search %s for %s: %w", root, name, err)
	}
	if found == "" {
		return "", fmt.Errorf("cryptox: %s not found under %s: %w", name, root, os.ErrNotExist)
	}
	return found, nil
}

// LoadCertificate reads an X.509 certificate in PEM or DER form.
func LoadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cryptox: read certificate: %w", err)
	}
	return ParseCertificate(data)
}

// ParseCertificate parses the first certificate of a PEM bundle, or data as
// DER when it holds no PEM at all.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	rest := data
	sawPEM := false
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		sawPEM = true
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("cryptox: parse certificate: %w", err)
			}
			return cert, nil
		}
	}
	if sawPEM {
		return nil, errors.New("cryptox: no certificate in PEM")
	}

	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse DER certificate: %w", err)
	}
	return cert, nil
}

// LoadSigningCertificate reads a certificate together with its RSA private
// key. ".pfx" and ".p12" files are PKCS#12 archives opened with password;
// anything else is a PEM bundle whose key may live in a sibling ".key" file.
func LoadSigningCertificate(path, password string) (*x509.Certificate, *rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cryptox: read signing certificate: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		return decodePKCS12(data, password)
	}

	cert, err := ParseCertificate(data)
	if err != nil {
		return nil, nil, err
	}

	key, err := ParsePrivateKeyPEM(data)
	if err != nil {
		keyPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".key"
		keyData, rerr := os.ReadFile(keyPath)
		if rerr != nil {
			return nil, nil, fmt.Errorf("cryptox: no private key in %s or %s: %w", path, keyPath, rerr)
		}
		if key, err = ParsePrivateKeyPEM(keyData); err != nil {
			return nil, nil, err
		}
	}

	if err := matchKey(cert, key); err != nil {
		return nil, nil, err
	}
	return cert, key, nil
}

func decodePKCS12(data []byte, password string) (*x509.Certificate, *rsa.PrivateKey, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("cryptox: decode PKCS#12: %w", err)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("cryptox: PKCS#12 key is %T, want RSA", priv)
	}
	if err := matchKey(cert, key); err != nil {
		return nil, nil, err
	}
	return cert, key, nil
}

func matchKey(cert *x509.Certificate, key *rsa.PrivateKey) error {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("cryptox: certificate key is %T, want RSA", cert.PublicKey)
	}
	if !pub.Equal(&key.PublicKey) {
		return errors.New("cryptox: private key does not match certificate")
	}
	return nil
}

// RSAPublicKey returns the RSA public key of cert.
func RSAPublicKey(cert *x509.Certificate) (*rsa.PublicKey, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("cryptox: certificate key is %T, want RSA", cert.PublicKey)
	}
	return pub, nil
}

// Bundle concatenates PEM blocks into one file body.
func Bundle(blocks ...[]byte) []byte {
	return bytes.Join(blocks, nil)
}
