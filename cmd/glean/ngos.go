package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
)

var ngosJSON bool

var ngosCmd = &cobra.Command{
	Use:   "ngos",
	Short: "List the registered NGOs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}

		dir := glean.OpenDirectory(ctx, store)
		defer dir.Close()

		if err := waitReady(dir.Phase, dir.Reason, 10*time.Second); err != nil {
			fatal("Directory failed to load", err)
		}

		entries := dir.Entries()
		if ngosJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(entries); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.ID, e.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(ngosCmd)
	ngosCmd.Flags().BoolVar(&ngosJSON, "json", false, "Output in JSON format")
}
