// Package toolchain wraps the Node tools shipyard drives: the package
// installer and the packager invoked through it.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gurisko/shipyard/internal/limits"
	"github.com/gurisko/shipyard/internal/runner"
)

var (
	// ErrToolingInstallFailed indicates installing the packager exited non-zero
	ErrToolingInstallFailed = errors.New("failed to install electron-builder")
	// ErrDependencyInstallFailed indicates the dependency install exited non-zero
	ErrDependencyInstallFailed = errors.New("failed to install dependencies")
)

// Tools names the executables and packages used for a build.
type Tools struct {
	Installer    string // npm
	Invoker      string // npx
	Packager     string // electron-builder
	ShellPackage string // electron
}

// DefaultTools returns the stock npm/npx/electron-builder set.
func DefaultTools() Tools {
	return Tools{
		Installer:    "npm",
		Invoker:      "npx",
		Packager:     "electron-builder",
		ShellPackage: "electron",
	}
}

// Toolchain runs the tools in a project directory.
type Toolchain struct {
	Tools  Tools
	runner runner.Runner
}

// New returns a Toolchain that executes through r.
func New(r runner.Runner, tools Tools) *Toolchain {
	return &Toolchain{Tools: tools, runner: r}
}

// InstallDependencies runs "npm install" in dir.
func (t *Toolchain) InstallDependencies(ctx context.Context, dir string) error {
	return t.install(ctx, dir, nil, ErrDependencyInstallFailed)
}

// InstallPackager runs "npm install electron-builder --save-dev" in dir.
func (t *Toolchain) InstallPackager(ctx context.Context, dir string) error {
	return t.install(ctx, dir, []string{t.Tools.Packager, "--save-dev"}, ErrToolingInstallFailed)
}

func (t *Toolchain) install(ctx context.Context, dir string, extra []string, failed error) error {
	args := append([]string{"install"}, extra...)
	res, err := t.runner.Run(ctx, t.Tools.Installer, args, runner.Opts{Dir: dir})
	if err != nil {
		return fmt.Errorf("%w: %w", failed, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: %s exited with %d%s", failed, t.Tools.Installer, res.ExitCode, tail(res.Stderr))
	}
	return nil
}

// Package starts "npx electron-builder <flags>" in dir and streams its
// output.
func (t *Toolchain) Package(ctx context.Context, dir string, flags []string) (*runner.Stream, error) {
	args := append([]string{t.Tools.Packager}, flags...)
	return t.runner.Stream(ctx, t.Tools.Invoker, args, runner.Opts{Dir: dir})
}

// tail keeps the end of a tool's stderr for error messages.
func tail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > limits.ErrorBody {
		stderr = "..." + stderr[len(stderr)-limits.ErrorBody:]
	}
	return ": " + stderr
}
