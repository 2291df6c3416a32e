// Package platform knows the three desktop targets electron-builder packages
// for and the host-side helpers a UI needs around them.
package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gurisko/shipyard/internal/runner"
)

// Platform is a packaging target.
type Platform string

const (
	Windows Platform = "win"
	Mac     Platform = "mac"
	Linux   Platform = "linux"
)

// All lists the targets in canonical order.
var All = []Platform{Windows, Mac, Linux}

// ErrUnknownPlatform indicates a target name that is not win, mac or linux
var ErrUnknownPlatform = errors.New("unknown platform")

// Parse accepts the canonical names and the common Node/Go spellings.
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "windows", "win32":
		return Windows, nil
	case "mac", "macos", "darwin", "osx":
		return Mac, nil
	case "linux":
		return Linux, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// ParseAll parses every name and drops duplicates, keeping first occurrence.
func ParseAll(names []string) ([]Platform, error) {
	seen := make(map[Platform]bool, len(names))
	var out []Platform
	for _, n := range names {
		p, err := Parse(n)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// FromGOOS maps a runtime.GOOS value to a Platform; other systems map to
// Linux.
func FromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return Mac
	default:
		return Linux
	}
}

// Host returns the platform shipyard is running on.
func Host() Platform {
	return FromGOOS(runtime.GOOS)
}

// AvailableTargets returns the targets worth offering on host. macOS
// packages need a macOS host, so mac is only offered there.
func AvailableTargets(host Platform) []Platform {
	out := make([]Platform, 0, len(All))
	for _, p := range All {
		if p == Mac && host != Mac {
			continue
		}
		out = append(out, p)
	}
	return out
}

// OpenFolder shows path in the system file browser.
func OpenFolder(ctx context.Context, r runner.Runner, host Platform, path string) error {
	var name string
	switch host {
	case Windows:
		name = "explorer"
	case Mac:
		name = "open"
	default:
		name = "xdg-open"
	}
	res, err := r.Run(ctx, name, []string{path}, runner.Opts{NoShell: true})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	// explorer.exe exits 1 even when it opened the window.
	if !res.Success() && host != Windows {
		return fmt.Errorf("failed to open %s: %s exited with %d", path, name, res.ExitCode)
	}
	return nil
}

// RelativePath expresses full relative to base, using forward slashes so
// the result is portable inside package.json.
func RelativePath(base, full string) (string, error) {
	rel, err := filepath.Rel(base, full)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
