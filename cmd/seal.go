package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/PolarWolf314/keyward/internal/secrets"
	"github.com/PolarWolf314/keyward/internal/ui"
	"github.com/PolarWolf314/keyward/internal/utils"
	"github.com/PolarWolf314/keyward/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	sealKey    string
	sealValues []string
	sealDryRun bool

	unsealKey        string
	unsealValuesFrom string
	unsealDryRun     bool
	unsealPassphrase passphraseFlags
)

var sealCmd = &cobra.Command{
	Use:   "seal [paths...]",
	Short: "Seals files or named values into AES envelopes",
	Long: `Seals files into JSON envelopes written next to them as <name>.sealed.

Arguments may be files, directories (walked recursively) or glob patterns
such as "config/**/*.env". With --value NAME=VALUE, repeated, the values are
sealed instead and a JSON object of envelopes keyed by name is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting seal command")
		if len(sealValues) > 0 {
			if len(args) > 0 {
				return fmt.Errorf("paths and --value cannot be combined")
			}
			return runSealValues(cmd)
		}

		env, err := environment()
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner(cmd, "Sealing files...")
		defer cleanup()

		result, err := workflows.SealFiles(cmd.Context(), env, workflows.SealOptions{
			PublicKey:    sealKey,
			FilePatterns: args,
			DryRun:       sealDryRun,
		})
		if err != nil {
			Logger.Errorf("Sealing failed: %v", err)
			return err
		}

		spinner.FinalMSG = filesMessage(result, "sealed", "Sealed files can be committed; keep the originals out of version control")
		return nil
	},
}

func runSealValues(cmd *cobra.Command) error {
	values := make([]workflows.NamedValue, 0, len(sealValues))
	for _, assignment := range sealValues {
		name, value, err := splitAssignment(assignment)
		if err != nil {
			return err
		}
		values = append(values, workflows.NamedValue{Name: name, Value: value})
	}

	env, err := environment()
	if err != nil {
		return err
	}

	sealed, err := workflows.SealValues(cmd.Context(), env, sealKey, values)
	if err != nil {
		Logger.Errorf("Sealing values failed: %v", err)
		return err
	}

	out := make(map[string]*secrets.Envelope, len(sealed))
	for _, s := range sealed {
		out[s.Name] = s.Envelope
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Logger.ErrorfAndReturn("failed to render envelopes: %v", err)
	}
	Logger.Infof("Sealed %d values", len(sealed))
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

var unsealCmd = &cobra.Command{
	Use:   "unseal [paths...]",
	Short: "Restores sealed files or values",
	Long: `Decrypts <name>.sealed files back to <name>.

Arguments may be files, directories or glob patterns. With --values FILE the
JSON object printed by "seal --value" is read (- for stdin) and each value is
printed as NAME=VALUE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unseal command")
		passphrase, err := unsealPassphrase.resolve()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read passphrase: %v", err)
		}

		if unsealValuesFrom != "" {
			if len(args) > 0 {
				return fmt.Errorf("paths and --values cannot be combined")
			}
			return runUnsealValues(cmd, passphrase)
		}

		env, err := environment()
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner(cmd, "Unsealing files...")
		defer cleanup()

		result, err := workflows.UnsealFiles(cmd.Context(), env, workflows.UnsealOptions{
			PrivateKey:          unsealKey,
			FilePatterns:        args,
			Passphrase:          passphrase,
			PassphraseEncrypted: unsealPassphrase.encrypted,
			DryRun:              unsealDryRun,
		})
		if err != nil {
			Logger.Errorf("Unsealing failed: %v", err)
			return err
		}

		spinner.FinalMSG = filesMessage(result, "restored", "")
		return nil
	},
}

func runUnsealValues(cmd *cobra.Command, passphrase string) error {
	var data []byte
	var err error
	if unsealValuesFrom == utils.StdinArg {
		data, err = utils.ReadStdin("the sealed values")
	} else {
		data, err = os.ReadFile(unsealValuesFrom)
	}
	if err != nil {
		return Logger.ErrorfAndReturn("failed to read sealed values: %v", err)
	}

	var envelopes map[string]*secrets.Envelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return Logger.ErrorfAndReturn("failed to parse sealed values: %v", err)
	}

	names := make([]string, 0, len(envelopes))
	for name := range envelopes {
		names = append(names, name)
	}
	sort.Strings(names)

	sealed := make([]workflows.SealedValue, 0, len(names))
	for _, name := range names {
		sealed = append(sealed, workflows.SealedValue{Name: name, Envelope: envelopes[name]})
	}

	env, err := environment()
	if err != nil {
		return err
	}

	values, err := workflows.UnsealValues(cmd.Context(), env, unsealKey, sealed, passphrase, unsealPassphrase.encrypted)
	if err != nil {
		Logger.Errorf("Unsealing values failed: %v", err)
		return err
	}

	for _, v := range values {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", v.Name, v.Value)
	}
	return nil
}

// filesMessage summarizes a file batch for the spinner's final message.
func filesMessage(result *workflows.SealResult, verb, hint string) string {
	if result.DryRun {
		return ui.Warning.Sprint("[dry-run]") + fmt.Sprintf(" Would have %s %d files:", verb, len(result.OutputFiles)) +
			ui.FormatPaths(result.OutputFiles) + ui.Muted.Sprint("no files were written")
	}

	msg := ui.Done("%d files %s:", len(result.OutputFiles), verb) + ui.FormatPaths(result.OutputFiles)
	if hint != "" {
		msg += ui.Info.Sprint("→") + " " + hint
	}
	return msg
}

func init() {
	sealCmd.Flags().StringVarP(&sealKey, "key", "k", "", "public key as a path, PEM text or authorized key line")
	sealCmd.Flags().StringArrayVar(&sealValues, "value", nil, "seal NAME=VALUE instead of files (repeatable)")
	sealCmd.Flags().BoolVar(&sealDryRun, "dry-run", false, "show which files would be sealed without writing them")
	_ = sealCmd.MarkFlagRequired("key")

	unsealCmd.Flags().StringVarP(&unsealKey, "key", "k", "", "private key as a path or PEM text")
	unsealCmd.Flags().StringVar(&unsealValuesFrom, "values", "", "read sealed values from this JSON file (- for stdin)")
	unsealCmd.Flags().BoolVar(&unsealDryRun, "dry-run", false, "show which files would be restored without writing them")
	unsealPassphrase.register(unsealCmd)
	_ = unsealCmd.MarkFlagRequired("key")
}

func resetSealCommandState() {
	sealKey = ""
	sealValues = nil
	sealDryRun = false
	unsealKey = ""
	unsealValuesFrom = ""
	unsealDryRun = false
	unsealPassphrase.reset()
}
