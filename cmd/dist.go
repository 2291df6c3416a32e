package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/platform"
	"github.com/gurisko/shipyard/internal/runner"
)

var distCmd = &cobra.Command{
	Use:   "dist [dir]",
	Short: "Open the build output folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		return openOutput(cmd.Context(), dir)
	},
}

func init() {
	rootCmd.AddCommand(distCmd)
}

// openOutput opens the project's output directory in the file browser.
func openOutput(ctx context.Context, dir string) error {
	m, err := manifest.ReadFile(dir)
	if err != nil {
		return err
	}
	out := m.OutputDir()
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, filepath.FromSlash(out))
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("no build output at %s; run shipyard build first", out)
	}
	return platform.OpenFolder(ctx, runner.New(), platform.Host(), out)
}
