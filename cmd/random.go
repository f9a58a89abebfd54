package cmd

import (
	"fmt"
	"strconv"

	"github.com/PolarWolf314/keyward/internal/workflows"
	"github.com/spf13/cobra"
)

var randomEncoding string

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Draws cryptographically secure random values",
}

var randomBytesCmd = &cobra.Command{
	Use:   "bytes <n>",
	Short: "Prints n random bytes, encoded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid byte count %q: %w", args[0], err)
		}

		env, err := environment()
		if err != nil {
			return err
		}

		out, err := workflows.RandomBytes(env, n, randomEncoding)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var randomIntCmd = &cobra.Command{
	Use:   "int <low> <high>",
	Short: "Prints a uniform random integer in [low, high]",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bounds := make([]uint64, 2)
		for i, arg := range args {
			v, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid bound %q: %w", arg, err)
			}
			bounds[i] = v
		}

		env, err := environment()
		if err != nil {
			return err
		}

		v, err := workflows.RandomInt(env, bounds[0], bounds[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	randomBytesCmd.Flags().StringVarP(&randomEncoding, "encoding", "e", "hex", "output encoding: hex, base64, base64url or raw")
	randomCmd.AddCommand(randomBytesCmd)
	randomCmd.AddCommand(randomIntCmd)
}

func resetRandomCommandState() {
	randomEncoding = "hex"
}
