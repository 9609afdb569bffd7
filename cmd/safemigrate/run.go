package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safemigrate/safemigrate/internal/config"
	"github.com/safemigrate/safemigrate/internal/gate"
	"github.com/safemigrate/safemigrate/internal/plan"
	"github.com/safemigrate/safemigrate/internal/report"
	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/storage/factory"
	"github.com/safemigrate/safemigrate/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run <plan.yaml>",
	Short: "Gate a migration plan and print the migrations safe to run",
	Long: `Gate a migration plan.

Loads the plan manifest, classifies every migration as ready, delayed,
or blocked, records first-seen timestamps for newly delayed migrations,
and prints the ready set in plan order. In strict mode (the default)
blocked migrations abort the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		// Disabled mode never touches the store, so don't open one.
		var store storage.DetectionStore
		if settings.Mode != types.ModeDisabled {
			store, err = openStore(settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
		}

		ctrl := gate.NewController(store, gate.Options{
			Mode: settings.Mode,
			Fake: settings.Fake,
		})

		res, err := ctrl.Run(rootCtx, p)
		if err != nil {
			var invalidErr *gate.InvalidPolicyError
			if errors.As(err, &invalidErr) {
				report.PrintInvalid(os.Stdout, invalidErr.Identities)
			}
			// A blocked strict run still reports what was delayed and
			// blocked before aborting.
			report.Print(os.Stdout, res, time.Now())
			return err
		}

		report.Print(os.Stdout, res, time.Now())
		printReady(res)
		return nil
	},
}

func printReady(res *gate.Result) {
	if len(res.Ready) == 0 {
		fmt.Println("No migrations to run.")
		return
	}
	if res.Bypassed {
		fmt.Println("Safemigrate is disabled; running the full plan:")
	} else {
		fmt.Println("Migrations to run:")
	}
	for _, m := range res.Ready {
		fmt.Printf("  %s\n", m.Identity)
	}
}

func openStore(settings *config.Settings) (storage.DetectionStore, error) {
	target := settings.DBPath
	if settings.Driver == "mysql" {
		target = settings.DSN
	}
	return factory.Open(rootCtx, settings.Driver, target)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
