package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "cavity",
	Short: "Cavity runs progressive-wetting droplet simulations",
	Long: `Cavity drops a liquid droplet into a rectangular well on a Shan-Chen lattice
and assigns each wall cell its contact-angle density once liquid first touches it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a configuration key, e.g. --set fluid.g=-120")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// loadConfig reads --config and applies --set and --log-level on top.
// Command flags are passed as extra overrides and win over --set.
func loadConfig(cmd *cobra.Command, overrides ...string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	all := append(sets, overrides...)
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		all = append(all, "log_level="+level)
	}
	if err := cfg.Set(all...); err != nil {
		return nil, err
	}
	return cfg, nil
}
