package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gurisko/shipyard/internal/config"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/registry"
	"github.com/gurisko/shipyard/internal/runner"
	"github.com/gurisko/shipyard/internal/toolchain"
	"github.com/gurisko/shipyard/internal/ui"
)

var (
	configFile string
	assumeYes  bool

	// settings is loaded before any subcommand runs.
	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "shipyard",
	Short: "shipyard - package Electron apps with electron-builder",
	Long: `shipyard opens or scaffolds Electron projects, keeps their package.json
fit for packaging, and runs electron-builder for Windows, macOS and Linux.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if err := v.BindPFlag("log_level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
			return err
		}
		s, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		settings = s
		logx.SetLevel(s.Level())
		logx.Debugf("config: %s", v.ConfigFileUsed())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/shipyard/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Interrupts cancel the context so a running npm or electron-builder is
	// stopped with the CLI.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// projectDir is the directory named by args, or the working directory.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return abs, nil
}

func newToolchain() *toolchain.Toolchain {
	return toolchain.New(runner.New(), settings.Tools())
}

func newTerminal() *ui.Terminal {
	return ui.NewTerminal(assumeYes)
}

// remember marks dir as recently used in the project registry. Failures are
// logged, never returned.
func remember(dir string) {
	reg, err := registry.New(settings.Paths.Registry)
	if err != nil {
		logx.Warnf("registry: %v", err)
		return
	}
	if _, err := reg.Remember(dir, ""); err != nil {
		logx.Warnf("registry: failed to remember %s: %v", dir, err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
