package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/apigate/lint"
)

var force bool

// initCmd: apigate init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := initConfigurationFile(cfgFile, force)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
}

func initConfigurationFile(configurationPath string, overwrite bool) (string, error) {
	if configurationPath == "" {
		configurationPath = lint.DefaultConfigFile
	}
	if !overwrite {
		if _, err := os.Stat(configurationPath); err == nil {
			return "", fmt.Errorf("%s already exists, use --force to overwrite it", configurationPath)
		}
	}
	if err := lint.WriteConfig(configurationPath, lint.DefaultConfig()); err != nil {
		return "", err
	}
	return configurationPath, nil
}
