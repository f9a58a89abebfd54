package cmd

import (
	"github.com/PolarWolf314/keyward/internal/ui"
	"github.com/PolarWolf314/keyward/internal/utils"
	"github.com/PolarWolf314/keyward/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	keygenOut        string
	keygenPublicOut  string
	keygenPassphrase string
	keygenPrompt     bool
	keygenSize       int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generates an RSA key pair",
	Long: `Generates an RSA key pair with the configured tool (native or openssl).

The private key is written with 0600 permissions, encrypted when a passphrase
is given. The public key is printed and optionally written to --public-out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keygen command")

		passphrase := keygenPassphrase
		if keygenPrompt {
			pass, err := utils.ReadPassphrase("New key passphrase: ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read passphrase: %v", err)
			}
			passphrase = string(pass)
		}

		env, err := environment()
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner(cmd, "Generating key pair...")
		defer cleanup()

		result, err := workflows.GenerateKeys(cmd.Context(), env, workflows.KeygenOptions{
			PrivateKeyPath:   keygenOut,
			PublicKeyOutFile: keygenPublicOut,
			Passphrase:       passphrase,
			KeySize:          keygenSize,
		})
		if err != nil {
			Logger.Errorf("Key generation failed: %v", err)
			return err
		}
		Logger.Infof("Key pair written to %s", result.PrivateKeyPath)

		finalMessage := ui.Done("Key pair generated") + "\n" +
			"Private key: " + ui.Path.Sprint(result.PrivateKeyPath) + "\n"
		if result.PublicKeyOutFile != "" {
			finalMessage += "Public key:  " + ui.Path.Sprint(result.PublicKeyOutFile) + "\n"
		}
		finalMessage += result.PublicKey
		spinner.FinalMSG = finalMessage
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "", "private key path (default keys/id_rsa under the user data dir)")
	keygenCmd.Flags().StringVar(&keygenPublicOut, "public-out", "", "also write the public key to this path")
	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "encrypt the private key with this passphrase")
	keygenCmd.Flags().BoolVar(&keygenPrompt, "prompt", false, "read the passphrase from the terminal")
	keygenCmd.Flags().IntVar(&keygenSize, "size", 0, "key size in bits (default from configuration)")
	keygenCmd.MarkFlagsMutuallyExclusive("passphrase", "prompt")
}

func resetKeygenCommandState() {
	keygenOut = ""
	keygenPublicOut = ""
	keygenPassphrase = ""
	keygenPrompt = false
	keygenSize = 0
}
