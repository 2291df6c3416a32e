package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
)

var fixDryRun bool

var fixCmd = &cobra.Command{
	Use:   "fix [dir]",
	Short: "Correct package.json for packaging",
	Long: `Move electron to devDependencies, fill in a missing description and
entry point, and write the result back. With --dry-run, show the changes as
a diff without writing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		policy := settings.Policy()

		if !fixDryRun {
			_, fixes, err := policy.Open(dir)
			if err != nil {
				return err
			}
			if len(fixes) == 0 {
				fmt.Println("Nothing to fix")
				return nil
			}
			printFixes(fixes)
			return nil
		}

		before, err := manifest.ReadFile(dir)
		if err != nil {
			return err
		}
		after, fixes := policy.Reconcile(before)
		if len(fixes) == 0 {
			fmt.Println("Nothing to fix")
			return nil
		}
		color := isatty.IsTerminal(os.Stdout.Fd())
		if _, err := manifest.WriteDiff(cmd.Context(), os.Stdout, manifest.Filename, before, after, color); err != nil {
			return err
		}
		printFixes(fixes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "show the changes without writing them")
}
