package secrets

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// Mode names a symmetric construction for envelopes.
type Mode string

const (
	// ModeGCM is AES-256-GCM with a block-sized (16 byte) nonce. The
	// authentication tag is appended to the ciphertext.
	ModeGCM Mode = "aes-256-gcm"

	// ModeCBC is AES-256-CBC with PKCS#7 padding. It carries no integrity
	// protection and exists to read and write envelopes for tooling that
	// only speaks CBC.
	ModeCBC Mode = "aes-256-cbc"
)

const (
	symmetricKeySize = 32
	ivSize           = aes.BlockSize
)

// ParseMode maps a configured name onto a Mode.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(name); m {
	case "":
		return ModeGCM, nil
	case ModeGCM, ModeCBC:
		return m, nil
	default:
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "unknown cipher mode %q", name)
	}
}

func (c *Cipher) mode() Mode {
	if c.Mode == "" {
		return ModeGCM
	}
	return c.Mode
}

// SymmetricEncrypt seals plaintext of any length under a fresh AES-256 key and
// wraps that key with the RSA public key.
func (c *Cipher) SymmetricEncrypt(ctx context.Context, publicKeyOrPath, plaintext string) (*Envelope, error) {
	if err := requireText("plaintext", plaintext); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(c.mode()))
	if err != nil {
		return nil, err
	}

	pub, err := LoadPublicKey(publicKeyOrPath)
	if err != nil {
		return nil, err
	}

	key, err := c.source().Read(symmetricKeySize)
	if err != nil {
		return nil, err
	}
	// Zero out the symmetric key when we're done.
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	iv, err := c.source().Read(ivSize)
	if err != nil {
		return nil, err
	}

	data, err := sealSymmetric(mode, key, iv, []byte(plaintext))
	if err != nil {
		return nil, err
	}

	wrappedKey, err := c.wrap(pub, key)
	if err != nil {
		return nil, err
	}

	logger.L().Debugf("Sealed %d bytes with %s", len(plaintext), mode)
	return &Envelope{
		EncryptedKey:  base64.StdEncoding.EncodeToString(wrappedKey),
		IV:            base64.StdEncoding.EncodeToString(iv),
		EncryptedData: base64.StdEncoding.EncodeToString(data),
		Mode:          mode,
	}, nil
}

// SymmetricDecrypt opens the three envelope parts produced by SymmetricEncrypt.
func (c *Cipher) SymmetricDecrypt(ctx context.Context, privateKeyPathOrPEM, encryptedKey, iv, encryptedData string, opts DecryptOptions) (string, error) {
	return c.OpenEnvelope(ctx, privateKeyPathOrPEM, &Envelope{
		EncryptedKey:  encryptedKey,
		IV:            iv,
		EncryptedData: encryptedData,
	}, opts)
}

// OpenEnvelope unwraps the symmetric key, resolving the passphrase first when
// required, then decrypts the payload. An envelope without a Mode is read
// with the cipher's configured mode.
func (c *Cipher) OpenEnvelope(ctx context.Context, privateKeyPathOrPEM string, env *Envelope, opts DecryptOptions) (string, error) {
	if env == nil {
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "envelope must not be nil")
	}
	wrappedKey, iv, data, err := env.decode()
	if err != nil {
		return "", err
	}

	mode := env.Mode
	if mode == "" {
		mode = c.mode()
	}
	if mode, err = ParseMode(string(mode)); err != nil {
		return "", err
	}

	priv, err := c.unlock(ctx, privateKeyPathOrPEM, opts)
	if err != nil {
		return "", err
	}

	if len(wrappedKey) != priv.Size() {
		return "", kerrors.Newf(kerrors.ErrCryptoOperation,
			"encrypted key is %d bytes, expected %d for this private key", len(wrappedKey), priv.Size())
	}

	key, err := c.unwrap(priv, wrappedKey)
	if err != nil {
		return "", err
	}
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	plaintext, err := openSymmetric(mode, key, iv, data)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func sealSymmetric(mode Mode, key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}

	switch mode {
	case ModeCBC:
		padded := pkcs7Pad(plaintext, aes.BlockSize)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return out, nil
	default:
		gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
		}
		return gcm.Seal(nil, iv, plaintext, nil), nil
	}
}

func openSymmetric(mode Mode, key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
	}

	switch mode {
	case ModeCBC:
		if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
			return nil, kerrors.Newf(kerrors.ErrCryptoOperation, "encrypted data is not a whole number of blocks")
		}
		out := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		unpadded, err := pkcs7Unpad(out, aes.BlockSize)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
		}
		return unpadded, nil
	default:
		gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
		}
		out, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrCryptoOperation, err)
		}
		return out, nil
	}
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

var errBadPadding = errors.New("bad decrypt: invalid padding")

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}
	return data[:len(data)-n], nil
}
