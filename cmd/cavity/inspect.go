package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity/internal/cli"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [run-id]",
	Short: "List stored runs or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var runID string
		if len(args) > 0 {
			runID = args[0]
		}
		return cli.Inspect(cmd.Context(), cfg, runID, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
