package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/cavity"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cavity",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cavity version %s\n", strings.TrimSpace(cavity.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
