package workflows

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PolarWolf314/keyward/internal/audit"
	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
	"github.com/PolarWolf314/keyward/internal/secrets"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// PublicKey is PEM text, an authorized key line, or a path.
	PublicKey string

	Plaintext string

	// Hybrid produces a JSON envelope instead of direct RSA ciphertext, for
	// payloads that do not fit in the modulus.
	Hybrid bool
}

// EncryptResult contains the outcome of an encrypt operation. Exactly one of
// Ciphertext and Envelope is set.
type EncryptResult struct {
	Ciphertext string
	Envelope   *secrets.Envelope
}

// Text renders the result the way Decrypt accepts it.
func (r *EncryptResult) Text() (string, error) {
	if r.Envelope == nil {
		return r.Ciphertext, nil
	}
	data, err := json.Marshal(r.Envelope)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encrypt encrypts a single value.
func Encrypt(ctx context.Context, env *Env, opts EncryptOptions) (*EncryptResult, error) {
	cipher, err := env.Cipher()
	if err != nil {
		return nil, err
	}

	entry := audit.Begin("encrypt")
	entry.Key = audit.KeyRef(opts.PublicKey)

	result := &EncryptResult{}
	if opts.Hybrid {
		entry.Mode = string(cipher.Mode)
		result.Envelope, err = cipher.SymmetricEncrypt(ctx, opts.PublicKey, opts.Plaintext)
	} else {
		result.Ciphertext, err = cipher.Encrypt(ctx, opts.PublicKey, opts.Plaintext)
	}
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// PrivateKey is PEM text or a path.
	PrivateKey string

	// Ciphertext is either base64 from a direct encryption or a JSON envelope.
	Ciphertext string

	Passphrase string

	// PassphraseEncrypted routes Passphrase through the configured readiness
	// check and secret helper first.
	PassphraseEncrypted bool
}

// Decrypt reverses Encrypt, telling envelopes from direct ciphertext by
// their leading brace.
func Decrypt(ctx context.Context, env *Env, opts DecryptOptions) (string, error) {
	cipher, err := env.Cipher()
	if err != nil {
		return "", err
	}

	entry := audit.Begin("decrypt")
	entry.Key = audit.KeyRef(opts.PrivateKey)

	unlock := secrets.DecryptOptions{Passphrase: opts.Passphrase, PassphraseEncrypted: opts.PassphraseEncrypted}
	ciphertext := strings.TrimSpace(opts.Ciphertext)

	var plaintext string
	if strings.HasPrefix(ciphertext, "{") {
		var envelope secrets.Envelope
		if err = json.Unmarshal([]byte(ciphertext), &envelope); err != nil {
			err = kerrors.New(kerrors.ErrInvalidArgument, err)
		} else {
			entry.Mode = string(envelope.Mode)
			logger.L().Debugf("Opening %s envelope", envelope.Mode)
			plaintext, err = cipher.OpenEnvelope(ctx, opts.PrivateKey, &envelope, unlock)
		}
	} else {
		plaintext, err = cipher.Decrypt(ctx, opts.PrivateKey, ciphertext, unlock)
	}
	env.Audit.Record(entry, err)
	if err != nil {
		return "", err
	}
	return plaintext, nil
}
