package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/glean"
	"github.com/aretw0/glean/pkg/feed"
)

var (
	alertTitle    string
	alertMessage  string
	alertLocation string
	alertUrgency  string
	alertContact  string
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Broadcast a disaster alert to every registered NGO",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		writer, ok := store.(glean.Putter)
		if !ok {
			fatal("Store does not support writes", fmt.Errorf("adapter is read-only"))
		}

		dir := glean.OpenDirectory(ctx, store)
		defer dir.Close()
		if err := waitReady(dir.Phase, dir.Reason, 10*time.Second); err != nil {
			fatal("Directory failed to load", err)
		}

		entries := dir.Entries()
		if len(entries) == 0 {
			fmt.Println("No registered NGOs to alert.")
			return
		}

		details := feed.DisasterDetails{
			Location:      alertLocation,
			Description:   alertMessage,
			Urgency:       alertUrgency,
			ContactNumber: alertContact,
		}
		pub := glean.NewPublisher(writer)

		g, gctx := errgroup.WithContext(ctx)
		for _, entry := range entries {
			g.Go(func() error {
				_, err := pub.DisasterAlert(gctx, entry.ID, alertTitle, alertMessage, details)
				if err != nil {
					return fmt.Errorf("alerting %s: %w", entry.ID, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			fatal("Failed to broadcast alert", err)
		}
		fmt.Printf("Alert sent to %d NGOs.\n", len(entries))
	},
}

func init() {
	rootCmd.AddCommand(alertCmd)
	alertCmd.Flags().StringVar(&alertTitle, "title", "Disaster Alert", "Alert title")
	alertCmd.Flags().StringVar(&alertMessage, "message", "", "Alert description")
	alertCmd.Flags().StringVar(&alertLocation, "location", "", "Affected location")
	alertCmd.Flags().StringVar(&alertUrgency, "urgency", "high", "Urgency level")
	alertCmd.Flags().StringVar(&alertContact, "contact", "", "Contact number")
	alertCmd.MarkFlagRequired("message")
	alertCmd.MarkFlagRequired("location")
}
