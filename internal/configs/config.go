package configs

import (
	"fmt"
	"os"
	"time"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

const (
	ToolNative  = "native"
	ToolOpenSSL = "openssl"

	HashSHA256 = "sha256"
	HashSHA1   = "sha1"

	ModeGCM = "aes-256-gcm"
	ModeCBC = "aes-256-cbc"
)

type Config struct {
	Keys      Keys      `toml:"keys"`
	Cipher    Cipher    `toml:"cipher"`
	Readiness Readiness `toml:"readiness"`
	Secrets   Secrets   `toml:"secrets"`
	Audit     Audit     `toml:"audit"`
}

type Keys struct {
	Size    int    `toml:"size"`
	Tool    string `toml:"tool"`
	OpenSSL string `toml:"openssl"`
}

type Cipher struct {
	Mode     string `toml:"mode"`
	OAEPHash string `toml:"oaep_hash"`
}

// Readiness configures the gate in front of secret resolution. At most one
// of Command and URL may be set; neither means always ready.
type Readiness struct {
	Command  []string `toml:"command"`
	URL      string   `toml:"url"`
	Interval Duration `toml:"interval"`
	Attempts int      `toml:"attempts"`
}

// Secrets configures how encrypted passphrases are turned into cleartext.
// At most one of Command and VaultAddress may be set.
type Secrets struct {
	Command      []string `toml:"command"`
	VaultAddress string   `toml:"vault_address"`
	VaultMount   string   `toml:"vault_mount"`
	VaultKey     string   `toml:"vault_key"`
}

type Audit struct {
	Path string `toml:"path"`
}

// Duration is a time.Duration written as a string such as "1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Keys: Keys{
			Size:    2048,
			Tool:    ToolNative,
			OpenSSL: "openssl",
		},
		Cipher: Cipher{
			Mode:     ModeGCM,
			OAEPHash: HashSHA256,
		},
		Readiness: Readiness{
			Interval: Duration{time.Second},
			Attempts: 60,
		},
		Secrets: Secrets{
			VaultMount: "transit",
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, kerrors.New(kerrors.ErrFileAccess, fmt.Errorf("failed to read config %s: %w", path, err))
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, kerrors.New(kerrors.ErrInvalidArgument, fmt.Errorf("failed to load config %s: %w", path, err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to path.
func Save(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return kerrors.New(kerrors.ErrFileAccess, fmt.Errorf("failed to save config: %w", err))
	}
	return nil
}

// Validate rejects values no component would accept.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return kerrors.Newf(kerrors.ErrInvalidArgument, format, args...)
	}

	if c.Keys.Size < 1024 {
		return invalid("keys.size must be at least 1024, got %d", c.Keys.Size)
	}
	switch c.Keys.Tool {
	case ToolNative:
	case ToolOpenSSL:
		if c.Keys.OpenSSL == "" {
			return invalid("keys.openssl must name the openssl binary")
		}
	default:
		return invalid("keys.tool must be %q or %q, got %q", ToolNative, ToolOpenSSL, c.Keys.Tool)
	}

	switch c.Cipher.Mode {
	case ModeGCM, ModeCBC:
	default:
		return invalid("cipher.mode must be %q or %q, got %q", ModeGCM, ModeCBC, c.Cipher.Mode)
	}
	switch c.Cipher.OAEPHash {
	case HashSHA256, HashSHA1:
	default:
		return invalid("cipher.oaep_hash must be %q or %q, got %q", HashSHA256, HashSHA1, c.Cipher.OAEPHash)
	}

	if len(c.Readiness.Command) > 0 && c.Readiness.URL != "" {
		return invalid("readiness.command and readiness.url are mutually exclusive")
	}
	if c.Readiness.URL != "" {
		if c.Readiness.Attempts < 1 {
			return invalid("readiness.attempts must be positive, got %d", c.Readiness.Attempts)
		}
		if c.Readiness.Interval.Duration < 0 {
			return invalid("readiness.interval must not be negative")
		}
	}

	if len(c.Secrets.Command) > 0 && c.Secrets.VaultAddress != "" {
		return invalid("secrets.command and secrets.vault_address are mutually exclusive")
	}
	if c.Secrets.VaultAddress != "" && c.Secrets.VaultKey == "" {
		return invalid("secrets.vault_key is required with secrets.vault_address")
	}

	return nil
}
