package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep package.json fixed while you edit it",
	Long: `Watch the project directory and, whenever package.json changes, apply
the same corrections as shipyard fix. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		remember(dir)

		w := &watch.Watcher{
			Dir:    dir,
			Policy: settings.Policy(),
			OnChange: func(c watch.Change) {
				if c.Err != nil {
					fmt.Printf("error: %v\n", c.Err)
					return
				}
				printFixes(c.Fixes)
			},
		}
		fmt.Printf("Watching %s\n", manifest.Path(dir))
		return w.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
