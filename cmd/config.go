package cmd

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/keyward/internal/configs"
	"github.com/PolarWolf314/keyward/internal/ui"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manages the keyward configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Writes a configuration file holding the default settings",
	Long: `Writes the default configuration to --config, $KEYWARD_CONFIG or
keyward/config.toml under the user config dir. An existing file is kept
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			settings, err := configs.DefaultSettings()
			if err != nil {
				return err
			}
			path = settings.ConfigPath
		}
		Logger.Debugf("Writing default configuration to %s", path)

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
		}

		if err := configs.Save(path, configs.Default()); err != nil {
			Logger.Errorf("Failed to write configuration: %v", err)
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.Done("Wrote default configuration to %s", ui.Path.Sprint(path)))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing configuration file")
	configCmd.AddCommand(configInitCmd)
}
