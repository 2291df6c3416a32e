package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/session"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Export or import a project's package.json as a profile",
	Long: `A profile is a JSON document {"pkg": <package.json>} that carries a
project's settings to another project.`,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <file> [dir]",
	Short: "Write the project's package.json to a profile file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args[1:])
		if err != nil {
			return err
		}
		s, err := session.Open(dir, settings.Policy())
		if err != nil {
			return err
		}
		printFixes(s.Fixes())

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		if err := s.ExportProfile(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		fmt.Printf("Exported profile to %s\n", args[0])
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file> [dir]",
	Short: "Replace the project's package.json with a profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args[1:])
		if err != nil {
			return err
		}
		s, err := session.Open(dir, settings.Policy())
		if err != nil {
			return err
		}

		ok, err := newTerminal().Confirm(fmt.Sprintf("Replace package.json in %s with %s?", s.Dir(), args[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open profile: %w", err)
		}
		defer f.Close()
		if err := s.ImportProfile(f); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		remember(s.Dir())
		fmt.Printf("Imported profile from %s\n", args[0])
		return printForm(s)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)
}
