package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Check that electron-builder is a dev dependency",
	Long: `Check package.json for electron-builder and offer to install it
when it is missing. Use -y to install without asking.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		if err := manifest.Exists(dir); err != nil {
			return err
		}
		packager := settings.Packager
		if manifest.HasDevDependency(dir, packager) {
			fmt.Printf("%s is installed\n", packager)
			return nil
		}

		ok, err := newTerminal().Confirm(fmt.Sprintf("%s is not installed. Install it now?", packager))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
		fmt.Printf("Installing %s...\n", packager)
		if err := newToolchain().InstallPackager(cmd.Context(), dir); err != nil {
			return err
		}
		fmt.Printf("%s installed\n", packager)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
