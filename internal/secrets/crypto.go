package secrets

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505 -- OAEP-SHA1 only on explicit request, for interop.
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"hash"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
	"github.com/PolarWolf314/keyward/internal/random"
	"github.com/PolarWolf314/keyward/internal/resolver"
)

// PassphraseResolver turns a passphrase reference into a usable passphrase.
type PassphraseResolver interface {
	Resolve(ctx context.Context, ref resolver.PassphraseReference) (string, error)
}

// DecryptOptions describes how to unlock the private key.
type DecryptOptions struct {
	Passphrase string

	// PassphraseEncrypted marks Passphrase as a token that must go through
	// the resolver before it can unlock anything.
	PassphraseEncrypted bool
}

// Cipher performs direct RSA and hybrid encryption. The zero value is usable:
// OAEP with SHA-256, AES-256-GCM envelopes, crypto/rand, and no resolver.
type Cipher struct {
	Resolver PassphraseResolver
	Random   *random.Source

	// Hash selects the OAEP hash. Only crypto.SHA256 and crypto.SHA1 are accepted.
	Hash crypto.Hash

	// Mode selects the envelope construction for new envelopes.
	Mode Mode
}

func (c *Cipher) source() *random.Source {
	if c.Random != nil {
		return c.Random
	}
	return random.Default
}

func (c *Cipher) oaepHash() (hash.Hash, error) {
	switch c.Hash {
	case 0, crypto.SHA256:
		return sha256.New(), nil
	case crypto.SHA1:
		return sha1.New(), nil
	default:
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "unsupported OAEP hash %v", c.Hash)
	}
}

// Encrypt encrypts plaintext directly with the RSA public key and returns
// base64 ciphertext. plaintext plus OAEP overhead must fit in the modulus.
func (c *Cipher) Encrypt(ctx context.Context, publicKeyOrPath, plaintext string) (string, error) {
	if err := requireText("plaintext", plaintext); err != nil {
		return "", err
	}
	pub, err := LoadPublicKey(publicKeyOrPath)
	if err != nil {
		return "", err
	}

	ciphertext, err := c.wrap(pub, []byte(plaintext))
	if err != nil {
		return "", err
	}
	logger.L().Debugf("Encrypted %d bytes with %d-bit RSA key", len(plaintext), pub.N.BitLen())
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. When opts.PassphraseEncrypted is set the
// passphrase is resolved first; a resolver failure is returned unchanged and
// no RSA work is attempted.
func (c *Cipher) Decrypt(ctx context.Context, privateKeyPathOrPEM, ciphertext string, opts DecryptOptions) (string, error) {
	if err := requireText("ciphertext", ciphertext); err != nil {
		return "", err
	}

	priv, err := c.unlock(ctx, privateKeyPathOrPEM, opts)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "ciphertext must be a string of base64 text")
	}

	plaintext, err := c.unwrap(priv, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// unlock resolves the passphrase and loads the private key.
func (c *Cipher) unlock(ctx context.Context, privateKeyPathOrPEM string, opts DecryptOptions) (*rsa.PrivateKey, error) {
	passphrase := opts.Passphrase
	if opts.PassphraseEncrypted {
		if c.Resolver == nil {
			return nil, kerrors.New(kerrors.ErrSecretResolution, errors.New("passphrase is encrypted but no secret resolver is configured"))
		}
		resolved, err := c.Resolver.Resolve(ctx, resolver.PassphraseReference{Value: opts.Passphrase, Encrypted: true})
		if err != nil {
			return nil, err
		}
		passphrase = resolved
	}

	return LoadPrivateKey(privateKeyPathOrPEM, []byte(passphrase))
}

func (c *Cipher) wrap(pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	h, err := c.oaepHash()
	if err != nil {
		return nil, err
	}
	out, err := rsa.EncryptOAEP(h, c.source().Reader(), pub, msg, nil)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}
	return out, nil
}

func (c *Cipher) unwrap(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	h, err := c.oaepHash()
	if err != nil {
		return nil, err
	}
	out, err := rsa.DecryptOAEP(h, nil, priv, ciphertext, nil)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}
	return out, nil
}

// requireText rejects input that is not valid UTF-8 text.
func requireText(name, s string) error {
	if !utf8.ValidString(s) {
		return kerrors.Newf(kerrors.ErrInvalidArgument, "%s must be a string of valid UTF-8 text", name)
	}
	return nil
}
