package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/platform"
)

var platformJSON bool

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show the host platform and the targets it can build",
	RunE: func(cmd *cobra.Command, args []string) error {
		host := platform.Host()
		targets := platform.AvailableTargets(host)
		if platformJSON {
			return printJSON(map[string]any{"host": host, "targets": targets})
		}
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = string(t)
		}
		fmt.Printf("Host: %s\n", host)
		fmt.Printf("Targets: %s\n", strings.Join(names, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(platformCmd)
	platformCmd.Flags().BoolVar(&platformJSON, "json", false, "print JSON")
}
