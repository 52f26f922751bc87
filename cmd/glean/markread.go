package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
)

var markreadCmd = &cobra.Command{
	Use:   "markread <recipient-id> <notification-id>",
	Short: "Mark one notification as read",
	Long: `Flags the notification as read in the store. The change reaches the
feed through the normal live delivery, not through a local update.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}

		f := glean.OpenFeed(ctx, store, args[0])
		defer f.Close()

		if err := waitReady(f.Phase, f.Reason, 10*time.Second); err != nil {
			fatal("Feed failed to load", err)
		}

		if err := f.MarkRead(ctx, args[1]); err != nil {
			fatal("Failed to mark notification read", err)
		}
		fmt.Printf("Notification '%s' marked read.\n", args[1])
	},
}

func init() {
	rootCmd.AddCommand(markreadCmd)
}
