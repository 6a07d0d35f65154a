package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves stored run records, cavity helpers and Prometheus metrics over HTTP.
With --run a simulation is started in the background and its live status and
events are exposed on /status and /events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
			addr = cfg.Server.Addr
		}
		run, _ := cmd.Flags().GetBool("run")
		runID, _ := cmd.Flags().GetString("run-id")
		format, _ := cmd.Flags().GetString("log-format")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Serve(ctx, cfg, cli.ServeOptions{
			Addr:      addr,
			Run:       run,
			RunID:     runID,
			LogFormat: format,
			Out:       os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("run", false, "Start a run in the background")
	serveCmd.Flags().String("run-id", "", "Identifier of the background run")
}
