package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
	"github.com/aretw0/glean/pkg/donation"
)

var (
	donateRestaurant string
	donateNGO        string
	donateItems      []string
	donateValue      float64
	donateExpiry     string
	donateAddress    string
)

var donateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Submit a food donation to an NGO",
	Long: `Records a donation and notifies the chosen NGO. Items are given as
name:quantity:unit, e.g. --item bread:12:kg --item soup:3:items.`,
	Args: cobra.NoArgs,
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

		items := make([]donation.FoodItem, 0, len(donateItems))
		for _, raw := range donateItems {
			item, err := parseItem(raw)
			if err != nil {
				fatal("Invalid --item", err)
			}
			items = append(items, item)
		}

		svc := glean.NewDonationService(writer, glean.NewPublisher(writer))
		d, err := svc.Submit(ctx, donation.Donation{
			RestaurantID:  donateRestaurant,
			NGOID:         donateNGO,
			Items:         items,
			TotalValue:    donateValue,
			ExpiryDate:    donateExpiry,
			PickupAddress: donateAddress,
		})
		if err != nil {
			fatal("Failed to submit donation", err)
		}
		fmt.Printf("Donation '%s' recorded (%s).\n", d.ID, d.Summary())
	},
}

// parseItem decodes name:quantity:unit.
func parseItem(raw string) (donation.FoodItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return donation.FoodItem{}, fmt.Errorf("%q is not name:quantity:unit", raw)
	}
	qty, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return donation.FoodItem{}, fmt.Errorf("quantity in %q: %w", raw, err)
	}
	return donation.FoodItem{
		Name:     parts[0],
		Quantity: qty,
		Unit:     donation.Unit(parts[2]),
	}, nil
}

func init() {
	rootCmd.AddCommand(donateCmd)
	donateCmd.Flags().StringVar(&donateRestaurant, "restaurant", "", "Restaurant ID")
	donateCmd.Flags().StringVar(&donateNGO, "ngo", "", "Target NGO ID")
	donateCmd.Flags().StringArrayVar(&donateItems, "item", nil, "Food item as name:quantity:unit (repeatable)")
	donateCmd.Flags().Float64Var(&donateValue, "value", 0, "Estimated value")
	donateCmd.Flags().StringVar(&donateExpiry, "expiry", "", "Expiry date (YYYY-MM-DD)")
	donateCmd.Flags().StringVar(&donateAddress, "address", "", "Pickup address")
	donateCmd.MarkFlagRequired("restaurant")
	donateCmd.MarkFlagRequired("ngo")
	donateCmd.MarkFlagRequired("item")
	donateCmd.MarkFlagRequired("value")
}
