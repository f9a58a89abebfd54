package cmd

import (
	"fmt"

	"github.com/PolarWolf314/keyward/internal/utils"
	"github.com/PolarWolf314/keyward/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	encryptKey    string
	encryptHybrid bool

	decryptKey        string
	decryptPassphrase passphraseFlags
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [plaintext|-]",
	Short: "Encrypts a value with a public key",
	Long: `Encrypts a single value with RSA-OAEP and prints the base64 ciphertext.

With --hybrid the value is sealed into a JSON envelope with a fresh AES key
instead, which lifts the size limit of the RSA modulus. Pass - to read the
plaintext from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		plaintext, err := utils.ArgOrStdin(args[0], "the plaintext")
		if err != nil {
			return err
		}

		env, err := environment()
		if err != nil {
			return err
		}

		result, err := workflows.Encrypt(cmd.Context(), env, workflows.EncryptOptions{
			PublicKey: encryptKey,
			Plaintext: plaintext,
			Hybrid:    encryptHybrid,
		})
		if err != nil {
			Logger.Errorf("Encryption failed: %v", err)
			return err
		}

		text, err := result.Text()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to render envelope: %v", err)
		}
		Logger.Infof("Encrypted %d bytes", len(plaintext))
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [ciphertext|-]",
	Short: "Decrypts a value with a private key",
	Long: `Decrypts base64 RSA-OAEP ciphertext or a JSON envelope and prints the
plaintext. Pass - to read the ciphertext from stdin.

When --passphrase-encrypted is set the passphrase is first resolved through
the configured readiness check and secret helper.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")
		ciphertext, err := utils.ArgOrStdin(args[0], "the ciphertext")
		if err != nil {
			return err
		}

		passphrase, err := decryptPassphrase.resolve()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read passphrase: %v", err)
		}

		env, err := environment()
		if err != nil {
			return err
		}

		plaintext, err := workflows.Decrypt(cmd.Context(), env, workflows.DecryptOptions{
			PrivateKey:          decryptKey,
			Ciphertext:          ciphertext,
			Passphrase:          passphrase,
			PassphraseEncrypted: decryptPassphrase.encrypted,
		})
		if err != nil {
			Logger.Errorf("Decryption failed: %v", err)
			return err
		}

		Logger.Infof("Decrypted %d bytes", len(plaintext))
		fmt.Fprintln(cmd.OutOrStdout(), plaintext)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVarP(&encryptKey, "key", "k", "", "public key as a path, PEM text or authorized key line")
	encryptCmd.Flags().BoolVar(&encryptHybrid, "hybrid", false, "seal into an AES envelope instead of direct RSA")
	_ = encryptCmd.MarkFlagRequired("key")

	decryptCmd.Flags().StringVarP(&decryptKey, "key", "k", "", "private key as a path or PEM text")
	decryptPassphrase.register(decryptCmd)
	_ = decryptCmd.MarkFlagRequired("key")
}

func resetCryptCommandState() {
	encryptKey = ""
	encryptHybrid = false
	decryptKey = ""
	decryptPassphrase.reset()
}
