package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/PolarWolf314/keyward/internal/command"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// CommandDecrypter hands the token to a helper program as its last argument
// and reads the passphrase from stdout.
type CommandDecrypter struct {
	Runner command.Command
	Args   []string
}

func (d CommandDecrypter) Decrypt(ctx context.Context, token string) (string, error) {
	args := append(append([]string{}, d.Args...), token)
	out, err := d.Runner.Run(ctx, args, nil)
	if err != nil {
		// The token is left out of the log line.
		logger.L().Debugf("Secret helper %v exited with status %d", d.Args, command.ExitCode(err))
		return "", err
	}

	passphrase := strings.TrimRight(string(out), "\r\n")
	if passphrase == "" {
		return "", errors.New("secret helper returned an empty passphrase")
	}
	return passphrase, nil
}

// VaultDecrypter resolves tokens through a Vault transit engine. Tokens are
// transit ciphertexts ("vault:v1:...").
type VaultDecrypter struct {
	client *vault.Client
	mount  string
	key    string
}

// NewVaultDecrypter builds a client for address. An empty token leaves the
// client on VAULT_TOKEN.
func NewVaultDecrypter(address, token, mount, key string) (*VaultDecrypter, error) {
	config := vault.DefaultConfig()
	config.Address = address

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mount = strings.Trim(mount, "/")
	if mount == "" {
		mount = "transit"
	}

	return &VaultDecrypter{client: client, mount: mount, key: key}, nil
}

func (d *VaultDecrypter) Decrypt(ctx context.Context, token string) (string, error) {
	path := fmt.Sprintf("%s/decrypt/%s", d.mount, d.key)

	secret, err := d.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": token,
	})
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", errors.New("vault transit decrypt returned no data")
	}

	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return "", errors.New("vault transit decrypt returned no plaintext")
	}

	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("vault transit plaintext is not base64: %w", err)
	}
	return string(plaintext), nil
}
