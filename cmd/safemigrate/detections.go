package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/safemigrate/safemigrate/internal/config"
	"github.com/safemigrate/safemigrate/internal/report"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "List recorded first-seen timestamps",
	Long: `List every detection record in the store, oldest first. The detected
timestamp is what gates delay promotion for after_deploy migrations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}

		store, err := openStore(settings)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		records, err := store.List(rootCtx)
		if err != nil {
			return err
		}

		report.PrintDetections(os.Stdout, records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectionsCmd)
}
