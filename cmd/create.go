package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/scaffold"
)

var (
	createIn   string
	createPick bool
	createGit  bool
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new Electron project",
	Long: `Create <name> inside --in (default: the working directory) with a
package.json, main.js, preload.js and index.html, then run npm install.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := createIn
		if createPick {
			picked, ok, err := newTerminal().PickFolder("Create the project in folder")
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no folder selected")
			}
			base = picked
		}
		base, err := projectDir([]string{base})
		if err != nil {
			return err
		}

		fmt.Printf("Creating %s in %s...\n", args[0], base)
		dir, err := scaffold.CreateProject(cmd.Context(), newToolchain(), base, args[0], settings.ScaffoldOptions(createGit))
		if err != nil {
			return err
		}
		remember(dir)
		fmt.Printf("Created %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createIn, "in", "", "parent directory (default: working directory)")
	createCmd.Flags().BoolVar(&createPick, "pick", false, "prompt for the parent directory")
	createCmd.Flags().BoolVar(&createGit, "git", false, "initialise a git repository")
	createCmd.MarkFlagsMutuallyExclusive("in", "pick")
}
