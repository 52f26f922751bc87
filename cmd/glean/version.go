package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of glean",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("glean version %s\n", strings.TrimSpace(glean.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
