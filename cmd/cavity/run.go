package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one droplet simulation",
	Long: `Runs the setup, warm-up, calibration and production phases, writing density
snapshots and the run record to the output directory.

Flags override the configuration file; only flags given on the command line apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, cli.FlagOverrides(cmd.Flags())...)
		if err != nil {
			return err
		}
		runID, _ := cmd.Flags().GetString("run-id")
		quiet, _ := cmd.Flags().GetBool("quiet")
		format, _ := cmd.Flags().GetString("log-format")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		_, err = cli.Run(ctx, cfg, cli.RunOptions{
			RunID:     runID,
			LogFormat: format,
			Quiet:     quiet,
			Out:       os.Stdout,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	cli.RegisterRunFlags(runCmd.Flags())
	runCmd.Flags().String("run-id", "", "Run identifier, generated when empty")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress logs and the summary")

	// Running is what cavity is for, so it is also the default.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runCmd.RunE
}
