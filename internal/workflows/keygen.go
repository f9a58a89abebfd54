package workflows

import (
	"context"

	"github.com/PolarWolf314/keyward/internal/audit"
	logger "github.com/PolarWolf314/keyward/internal/logging"
	"github.com/PolarWolf314/keyward/internal/secrets"
)

// KeygenOptions configures the keygen workflow.
type KeygenOptions struct {
	// PrivateKeyPath is where the private key is written. Empty means the
	// default key location under the data directory.
	PrivateKeyPath string

	// PublicKeyOutFile, when set, also receives the public key.
	PublicKeyOutFile string

	Passphrase string

	// KeySize in bits. Zero means keys.size from the configuration.
	KeySize int
}

// KeygenResult contains the outcome of a keygen operation.
type KeygenResult struct {
	PrivateKeyPath   string
	PublicKeyOutFile string
	PublicKey        string
}

// GenerateKeys creates an RSA key pair with the configured tool.
func GenerateKeys(ctx context.Context, env *Env, opts KeygenOptions) (*KeygenResult, error) {
	privateKeyPath := opts.PrivateKeyPath
	if privateKeyPath == "" && env.Settings != nil {
		privateKeyPath = env.Settings.DefaultPrivateKeyPath()
	}

	entry := audit.Begin("keygen")
	entry.Key = privateKeyPath

	logger.L().Infof("Generating key pair at %s", privateKeyPath)
	publicKey, err := env.Generator().GenerateKeyPair(ctx, privateKeyPath, secrets.KeyGenOptions{
		PublicKeyOutFile: opts.PublicKeyOutFile,
		Passphrase:       opts.Passphrase,
		KeySize:          opts.KeySize,
	})
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}

	return &KeygenResult{
		PrivateKeyPath:   privateKeyPath,
		PublicKeyOutFile: opts.PublicKeyOutFile,
		PublicKey:        publicKey,
	}, nil
}
