package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safemigrate/safemigrate/internal/check"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Verify migration files declare a safety annotation",
	Long: `Verify that every migration file declares a '-- safe:' annotation
with a valid policy. Intended as a pre-commit or CI step.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		findings, err := check.ValidateFiles(args)
		if err != nil {
			return err
		}
		if len(findings) == 0 {
			return nil
		}
		for _, f := range findings {
			fmt.Fprintln(os.Stdout, f)
		}
		fmt.Fprint(os.Stdout, check.FixHint)
		return fmt.Errorf("%d migration file(s) failed the safety check", len(findings))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
