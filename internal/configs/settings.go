package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigEnv overrides the configuration file location.
const ConfigEnv = "KEYWARD_CONFIG"

// Settings holds the paths keyward works with outside of its config file.
type Settings struct {
	ConfigPath string
	KeysPath   string
}

// DefaultSettings resolves paths from the environment: $KEYWARD_CONFIG or
// <UserConfigDir>/keyward/config.toml, and $XDG_DATA_HOME/keyward/keys
// (falling back to ~/.local/share) for generated keys.
func DefaultSettings() (*Settings, error) {
	configPath := os.Getenv(ConfigEnv)
	if configPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error getting config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "keyward", "config.toml")
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return &Settings{
		ConfigPath: configPath,
		KeysPath:   filepath.Join(dataDir, "keyward", "keys"),
	}, nil
}

// DefaultPrivateKeyPath is where keygen writes when no path is given.
func (s *Settings) DefaultPrivateKeyPath() string {
	return filepath.Join(s.KeysPath, "id_rsa")
}
