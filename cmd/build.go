package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/history"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/platform"
)

var (
	buildWin    bool
	buildMac    bool
	buildLinux  bool
	buildRemote bool
	buildOpen   bool
	buildJSON   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Package the app with electron-builder",
	Long: `Make sure electron-builder and electron are in place, install
dependencies when needed, then run electron-builder for the selected
platforms and stream its output.

With --remote the build runs in the shipyard daemon instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		platforms, err := selectedPlatforms(platform.Host(), buildWin, buildMac, buildLinux)
		if err != nil {
			return err
		}

		var sink build.Sink = &consoleSink{out: os.Stdout}
		if buildJSON {
			enc := json.NewEncoder(os.Stdout)
			sink = build.EventFunc(func(e build.Event) {
				if err := enc.Encode(e); err != nil {
					logx.Warnf("build: failed to write event: %v", err)
				}
			})
		}
		result := &completionSink{Sink: sink}

		if buildRemote {
			err = remoteBuild(cmd.Context(), dir, platforms, result)
		} else {
			err = localBuild(cmd.Context(), dir, platforms, result)
		}
		if err != nil {
			return err
		}

		if buildOpen && result.success {
			return openOutput(cmd.Context(), dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVar(&buildWin, "win", false, "build for Windows")
	buildCmd.Flags().BoolVar(&buildMac, "mac", false, "build for macOS (macOS hosts only)")
	buildCmd.Flags().BoolVar(&buildLinux, "linux", false, "build for Linux")
	buildCmd.Flags().BoolVar(&buildRemote, "remote", false, "run the build in the shipyard daemon")
	buildCmd.Flags().BoolVar(&buildOpen, "open", false, "open the output folder after a successful build")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "print build events as NDJSON")
}

// selectedPlatforms turns the target flags into platforms, refusing targets
// host cannot build.
func selectedPlatforms(host platform.Platform, win, mac, linux bool) ([]platform.Platform, error) {
	var out []platform.Platform
	for _, sel := range []struct {
		on bool
		p  platform.Platform
	}{{win, platform.Windows}, {mac, platform.Mac}, {linux, platform.Linux}} {
		if sel.on {
			out = append(out, sel.p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w; use --win, --mac or --linux", build.ErrNoPlatforms)
	}
	available := platform.AvailableTargets(host)
	for _, p := range out {
		if !slices.Contains(available, p) {
			return nil, fmt.Errorf("cannot build for %s on a %s host", p, host)
		}
	}
	return out, nil
}

func localBuild(ctx context.Context, dir string, platforms []platform.Platform, sink build.Sink) error {
	orch := build.New(newToolchain(), settings.Policy())

	store, err := history.Open(settings.Paths.History)
	if err != nil {
		logx.Warnf("build: history disabled: %v", err)
	} else {
		defer store.Close()
		orch.Recorder = store
	}

	if err := orch.Run(ctx, build.Request{ProjectDir: dir, Platforms: platforms}, sink); err != nil {
		return err
	}
	remember(dir)
	return nil
}

var stageLabels = map[build.Stage]string{
	build.StageCheckingTooling:        "Checking for electron-builder",
	build.StageInstallingTooling:      "Installing electron-builder",
	build.StageCheckingManifest:       "Checking package.json",
	build.StageInstallingDependencies: "Installing dependencies",
	build.StageBuilding:               "Building",
}

// consoleSink prints build progress for a person at a terminal.
type consoleSink struct {
	out io.Writer
}

func (s *consoleSink) OnStage(st build.Stage) {
	label, ok := stageLabels[st]
	if !ok {
		label = string(st)
	}
	fmt.Fprintf(s.out, "==> %s...\n", label)
}

func (s *consoleSink) OnNotice(text string) {
	fmt.Fprintf(s.out, "note: %s\n", text)
}

func (s *consoleSink) OnOutput(chunk string) {
	io.WriteString(s.out, chunk)
}

func (s *consoleSink) OnComplete(success bool) {
	if success {
		fmt.Fprintln(s.out, "Build succeeded")
		return
	}
	fmt.Fprintln(s.out, "Build failed")
}

// completionSink remembers the outcome passed to OnComplete.
type completionSink struct {
	build.Sink
	success bool
}

func (c *completionSink) OnComplete(success bool) {
	c.success = success
	c.Sink.OnComplete(success)
}
