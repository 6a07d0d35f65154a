package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without running",
	Long:  `Loads the configuration, applies overrides and reports the resulting lattice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, cli.FlagOverrides(cmd.Flags())...)
		if err != nil {
			return err
		}
		return cli.Validate(cfg, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	cli.RegisterRunFlags(validateCmd.Flags())
}
