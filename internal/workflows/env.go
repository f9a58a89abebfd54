package workflows

import (
	"crypto"

	"github.com/PolarWolf314/keyward/internal/audit"
	"github.com/PolarWolf314/keyward/internal/command"
	"github.com/PolarWolf314/keyward/internal/configs"
	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	"github.com/PolarWolf314/keyward/internal/random"
	"github.com/PolarWolf314/keyward/internal/resolver"
	"github.com/PolarWolf314/keyward/internal/secrets"
)

// Env carries what every workflow needs. Build it once per invocation with
// LoadEnv, or fill it by hand in tests.
type Env struct {
	Config   *configs.Config
	Settings *configs.Settings

	// Runner executes openssl and the readiness and secret helpers.
	Runner command.Command

	// Random backs key, IV and random output generation.
	Random *random.Source

	Audit *audit.Logger

	// Decrypter overrides the secret helper named by the configuration.
	Decrypter resolver.SecretDecrypter
}

// LoadEnv reads the configuration at configPath, or the default location
// when configPath is empty.
func LoadEnv(configPath string) (*Env, error) {
	settings, err := configs.DefaultSettings()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		settings.ConfigPath = configPath
	}

	config, err := configs.Load(settings.ConfigPath)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config:   config,
		Settings: settings,
		Runner:   command.Exec{},
		Random:   random.Default,
		Audit:    audit.New(config.Audit.Path),
	}, nil
}

func (e *Env) config() *configs.Config {
	if e.Config == nil {
		return configs.Default()
	}
	return e.Config
}

func (e *Env) runner() command.Command {
	if e.Runner == nil {
		return command.Exec{}
	}
	return e.Runner
}

func (e *Env) random() *random.Source {
	if e.Random == nil {
		return random.Default
	}
	return e.Random
}

// Generator builds the key generator named by keys.tool.
func (e *Env) Generator() *secrets.Generator {
	config := e.config()

	var tool secrets.KeyTool
	switch config.Keys.Tool {
	case configs.ToolOpenSSL:
		tool = secrets.OpenSSLTool{Runner: e.runner(), Path: config.Keys.OpenSSL}
	default:
		tool = secrets.NativeTool{Rand: e.random().Reader()}
	}

	gen := secrets.NewGenerator(tool)
	gen.DefaultKeySize = config.Keys.Size
	return gen
}

// Resolver builds the passphrase resolver from the readiness and secrets
// sections.
func (e *Env) Resolver() (*resolver.Resolver, error) {
	config := e.config()

	var probe resolver.ReadinessProbe = resolver.ReadyProbe{}
	switch {
	case len(config.Readiness.Command) > 0:
		probe = resolver.CommandProbe{Runner: e.runner(), Args: config.Readiness.Command}
	case config.Readiness.URL != "":
		probe = resolver.HTTPProbe{
			URL:      config.Readiness.URL,
			Interval: config.Readiness.Interval.Duration,
			Attempts: config.Readiness.Attempts,
		}
	}

	decrypter := e.Decrypter
	if decrypter == nil {
		switch {
		case len(config.Secrets.Command) > 0:
			decrypter = resolver.CommandDecrypter{Runner: e.runner(), Args: config.Secrets.Command}
		case config.Secrets.VaultAddress != "":
			vd, err := resolver.NewVaultDecrypter(config.Secrets.VaultAddress, "", config.Secrets.VaultMount, config.Secrets.VaultKey)
			if err != nil {
				return nil, err
			}
			decrypter = vd
		}
	}

	return resolver.New(probe, decrypter), nil
}

// Cipher builds a cipher from the cipher section, wired to Resolver.
func (e *Env) Cipher() (*secrets.Cipher, error) {
	config := e.config()

	mode, err := secrets.ParseMode(config.Cipher.Mode)
	if err != nil {
		return nil, err
	}

	var hash crypto.Hash
	switch config.Cipher.OAEPHash {
	case "", configs.HashSHA256:
		hash = crypto.SHA256
	case configs.HashSHA1:
		hash = crypto.SHA1
	default:
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "unsupported OAEP hash %q", config.Cipher.OAEPHash)
	}

	r, err := e.Resolver()
	if err != nil {
		return nil, err
	}

	return &secrets.Cipher{
		Resolver: r,
		Random:   e.random(),
		Hash:     hash,
		Mode:     mode,
	}, nil
}
