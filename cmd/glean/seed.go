package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/glean"
)

var seedFile string

// seedDocument is one record in a seed file.
type seedDocument struct {
	ID     string       `yaml:"id"`
	Fields glean.Fields `yaml:"fields"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load documents from a YAML seed file into the store",
	Long: `Reads a YAML file mapping collection names to document lists and
writes every document to the store. Seed files look like:

  users:
    - id: ngo-1
      fields:
        role: ngo
        name: Helping Hands
  notifications:
    - id: n1
      fields:
        recipientId: ngo-1
        title: Welcome`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		data, err := os.ReadFile(seedFile)
		if err != nil {
			fatal("Failed to read seed file", err)
		}
		var collections map[string][]seedDocument
		if err := yaml.Unmarshal(data, &collections); err != nil {
			fatal("Failed to parse seed file", err)
		}

		store, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		writer, ok := store.(glean.Putter)
		if !ok {
			fatal("Store does not support writes", fmt.Errorf("adapter is read-only"))
		}

		total := 0
		for collection, docs := range collections {
			for _, doc := range docs {
				if err := writer.Put(ctx, collection, glean.Document{ID: doc.ID, Fields: doc.Fields}); err != nil {
					fatal(fmt.Sprintf("Failed to seed %s/%s", collection, doc.ID), err)
				}
				total++
			}
		}
		fmt.Printf("Seeded %d documents.\n", total)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "Seed file path")
}
