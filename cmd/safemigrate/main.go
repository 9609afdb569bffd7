package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safemigrate/safemigrate/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "safemigrate",
	Short: "safemigrate - deployment-safety gate for schema migrations",
	Long: `Classify an ordered migration plan into migrations that are safe to run
now, migrations that must wait for a post-deploy delay, and migrations
that violate their declared safety policy, then run only the safe set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("safemigrate version %s\n", Version)
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	pf := rootCmd.PersistentFlags()
	pf.String("mode", "", "Gate mode: strict, nonstrict, or disabled (default: strict)")
	pf.String("db", "", "SQLite detection database path (default: "+config.DefaultDBPath+")")
	pf.String("driver", "", "Detection store driver: sqlite or mysql (default: sqlite)")
	pf.String("dsn", "", "MySQL DSN for the detection store (driver=mysql)")
	pf.Bool("fake", false, "Dry run: classify and report, but never record detections")

	_ = viper.BindPFlag("mode", pf.Lookup("mode"))
	_ = viper.BindPFlag("db.path", pf.Lookup("db"))
	_ = viper.BindPFlag("db.driver", pf.Lookup("driver"))
	_ = viper.BindPFlag("db.dsn", pf.Lookup("dsn"))
	_ = viper.BindPFlag("fake", pf.Lookup("fake"))

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
