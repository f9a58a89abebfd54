package secrets

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/ssh"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

// looksLikeKey reports whether s is key content rather than a path.
func looksLikeKey(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.Contains(trimmed, "-----BEGIN ") || strings.HasPrefix(trimmed, "ssh-rsa ")
}

// readKeyMaterial returns s itself when it already holds a key and the
// contents of the file at s otherwise.
func readKeyMaterial(s string) ([]byte, error) {
	if looksLikeKey(s) {
		return []byte(s), nil
	}
	if s == "" {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "key must be a string holding PEM content or a file path")
	}
	data, err := os.ReadFile(s)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrFileAccess, err)
	}
	return data, nil
}

// LoadPublicKey accepts PEM text, an authorized_keys line, or a path to either.
func LoadPublicKey(keyOrPath string) (*rsa.PublicKey, error) {
	data, err := readKeyMaterial(keyOrPath)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKey(data)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}
	return pub, nil
}

// LoadPrivateKey accepts PEM text or a path to a PEM file.
func LoadPrivateKey(keyOrPath string, passphrase []byte) (*rsa.PrivateKey, error) {
	data, err := readKeyMaterial(keyOrPath)
	if err != nil {
		return nil, err
	}
	priv, err := ParsePrivateKey(data, passphrase)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}
	return priv, nil
}

// ParsePublicKey decodes a PKIX or PKCS#1 PEM block or an ssh-rsa line.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "ssh-rsa ") {
		sshPub, _, _, _, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, err
		}
		cryptoPub, ok := sshPub.(ssh.CryptoPublicKey)
		if !ok {
			return nil, fmt.Errorf("unsupported ssh public key type %s", sshPub.Type())
		}
		rsaPub, ok := cryptoPub.CryptoPublicKey().(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA public key")
		}
		return rsaPub, nil
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA public key")
		}
		return rsaPub, nil
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported public key PEM type %q", block.Type)
	}
}

// ParsePrivateKey decodes PKCS#1, PKCS#8, OpenSSH, legacy encrypted PEM and
// encrypted PKCS#8 RSA keys. A protected key without a passphrase yields
// ErrPassphraseRequired.
func ParsePrivateKey(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	if block.Type == "ENCRYPTED PRIVATE KEY" {
		if len(passphrase) == 0 {
			return nil, kerrors.ErrPassphraseRequired
		}
		return pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
	}

	raw, err := ssh.ParseRawPrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if len(passphrase) == 0 {
			return nil, kerrors.ErrPassphraseRequired
		}
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	}
	if err != nil {
		return nil, err
	}

	switch key := raw.(type) {
	case *rsa.PrivateKey:
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T, only RSA keys are supported", raw)
	}
}

// EncodePublicKey renders pub as a PKIX "PUBLIC KEY" PEM block.
func EncodePublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// EncodePrivateKey renders priv as PKCS#1 PEM, or as encrypted PKCS#8 when a
// passphrase is given.
func EncodePrivateKey(priv *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		}), nil
	}

	der, err := pkcs8.MarshalPrivateKey(priv, passphrase, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der}), nil
}
