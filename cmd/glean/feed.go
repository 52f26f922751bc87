package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
	"github.com/aretw0/glean/pkg/feed"
)

var (
	feedFollow bool
	feedJSON   bool
	feedUnread bool
)

var feedCmd = &cobra.Command{
	Use:   "feed <recipient-id>",
	Short: "Show the notification feed of a recipient",
	Long: `Opens the live notification feed of the given recipient and prints
it newest first. With --follow, keeps printing the feed on every
change until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}

		f := glean.OpenFeed(ctx, store, args[0])
		defer f.Close()

		if err := waitReady(f.Phase, f.Reason, 10*time.Second); err != nil {
			fatal("Feed failed to load", err)
		}

		printFeed(f)
		if !feedFollow {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-f.Updates():
				printFeed(f)
			case err := <-f.Errs():
				fmt.Fprintf(os.Stderr, "feed error: %v\n", err)
			}
		}
	},
}

func printFeed(f *feed.Feed) {
	notifications := f.Notifications()
	if feedUnread {
		var unread []feed.Notification
		for _, n := range notifications {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		notifications = unread
	}

	if feedJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(notifications); err != nil {
			fatal("Failed to encode JSON", err)
		}
		return
	}

	fmt.Printf("--- %d notifications (%d unread) ---\n", len(notifications), f.Unread())
	for _, n := range notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s  %s\n", marker, n.Classification(), n.CreatedAt.Format(time.RFC3339), n.Title)
	}
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().BoolVarP(&feedFollow, "follow", "f", false, "Keep following feed updates")
	feedCmd.Flags().BoolVar(&feedJSON, "json", false, "Output in JSON format")
	feedCmd.Flags().BoolVar(&feedUnread, "unread", false, "Show unread notifications only")
}
