package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
)

var validateConfigFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration and print it with all defaults filled in.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(validateConfigFile)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), c.String())

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigFile, "config", "",
		"YAML configuration file")

	rootCmd.AddCommand(validateCmd)
}

func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}
