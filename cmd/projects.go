//go:build unix

package cmd

import "github.com/spf13/cobra"

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage recently used projects",
	Long: `The project registry remembers every project shipyard opened, created
or built. These commands go through the shipyard daemon.`,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
