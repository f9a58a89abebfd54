package cmd

import (
	"context"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
	"github.com/PolarWolf314/keyward/internal/workflows"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string
	verbose    bool
	debug      bool
	Logger     logger.Logger

	// loadEnv is swapped in tests.
	loadEnv = workflows.LoadEnv

	RootCmd = &cobra.Command{
		Use:   "keyward",
		Short: "RSA and AES-GCM encryption for secrets and configuration values",
		Long: `keyward generates RSA key pairs, encrypts short values directly with
RSA-OAEP, seals larger payloads and files into hybrid AES envelopes, and
decrypts them again. Private key passphrases can themselves be encrypted and
resolved through a configured secret helper or Vault transit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.ErrOrStderr(),
				Err:     cmd.ErrOrStderr(),
			}
			logger.SetLogger(Logger)
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t, config=%q", cmd.Name(), verbose, debug, configPath)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file (default $KEYWARD_CONFIG or the user config dir)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(keygenCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(sealCmd)
	RootCmd.AddCommand(unsealCmd)
	RootCmd.AddCommand(randomCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// ExitCode maps err onto the process exit status: 0 on success, 2 for
// unusable input, 3 when a passphrase could not be obtained and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch kerrors.KindOf(err) {
	case kerrors.ErrInvalidArgument:
		return 2
	case kerrors.ErrPassphraseRequired, kerrors.ErrReadinessCheck, kerrors.ErrSecretResolution:
		return 3
	default:
		return 1
	}
}

// environment loads the configuration named by --config.
func environment() (*workflows.Env, error) {
	Logger.Debugf("Loading configuration from %q", configPath)
	env, err := loadEnv(configPath)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Configuration loaded from %s", env.Settings.ConfigPath)
	return env, nil
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all flag variables to their defaults for testing.
func ResetGlobalState() {
	configPath = ""
	verbose = false
	debug = false
	loadEnv = workflows.LoadEnv
	resetKeygenCommandState()
	resetCryptCommandState()
	resetSealCommandState()
	resetRandomCommandState()
	versionShort = false
	configForce = false
	resetFlags(RootCmd)
}

// resetFlags clears the Changed mark cobra leaves on flags between executions.
func resetFlags(c *cobra.Command) {
	unmark := func(f *pflag.Flag) { f.Changed = false }
	c.Flags().VisitAll(unmark)
	c.PersistentFlags().VisitAll(unmark)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
