package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/keyward/internal/ui"
	"github.com/PolarWolf314/keyward/internal/utils"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// startSpinner shows a spinner on stderr unless verbose or debug output is
// on. The returned cleanup prints s.FinalMSG, newline terminated, to the
// command's stdout.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}

	return s, cleanup
}

// passphraseFlags are shared by every command that opens a private key.
type passphraseFlags struct {
	value     string
	encrypted bool
	prompt    bool
}

func (p *passphraseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.value, "passphrase", "", "private key passphrase")
	cmd.Flags().BoolVar(&p.encrypted, "passphrase-encrypted", false, "the passphrase is encrypted and must be resolved by the secret helper")
	cmd.Flags().BoolVar(&p.prompt, "prompt", false, "read the passphrase from the terminal")
}

func (p *passphraseFlags) reset() {
	*p = passphraseFlags{}
}

// resolve returns the passphrase to use, prompting when asked to.
func (p *passphraseFlags) resolve() (string, error) {
	if !p.prompt {
		return p.value, nil
	}
	if p.value != "" {
		return "", fmt.Errorf("--passphrase and --prompt cannot be used together")
	}
	pass, err := utils.ReadPassphrase("Passphrase: ")
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

// splitAssignment splits NAME=VALUE.
func splitAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected NAME=VALUE, got %q", s)
	}
	return name, value, nil
}
