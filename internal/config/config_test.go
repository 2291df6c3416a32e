package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/gurisko/shipyard/internal/logx"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tools := s.Tools()
	if tools.Installer != "npm" || tools.Invoker != "npx" || tools.Packager != "electron-builder" || tools.ShellPackage != "electron" {
		t.Errorf("tools = %+v", tools)
	}
	p := s.Policy()
	if p.ShellVersion != "^30.0.0" || p.EntryPoint != "main.js" {
		t.Errorf("policy = %+v", p)
	}
	if s.Level() != logx.LevelWarn {
		t.Errorf("level = %v, want warn", s.Level())
	}
	if filepath.Base(s.Paths.History) != "history.db" || filepath.Base(filepath.Dir(s.Paths.History)) != "shipyard" {
		t.Errorf("history path = %s", s.Paths.History)
	}
	opts := s.ScaffoldOptions(true)
	if !opts.GitInit || opts.PackagerVersion != "^26.0.12" {
		t.Errorf("scaffold options = %+v", opts)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "shipyard.yaml")
	body := "installer: pnpm\nshell_version: ^31.0.0\nlog_level: debug\npaths:\n  registry: /tmp/reg.yaml\n"
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHIPYARD_INVOKER", "pnpx")
	t.Setenv("SHIPYARD_SHELL_VERSION", "^32.0.0")

	s, err := Load(viper.New(), file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Installer != "pnpm" {
		t.Errorf("installer = %q, want pnpm from file", s.Installer)
	}
	if s.Invoker != "pnpx" {
		t.Errorf("invoker = %q, want pnpx from env", s.Invoker)
	}
	if s.ShellVersion != "^32.0.0" {
		t.Errorf("shell_version = %q, env should beat file", s.ShellVersion)
	}
	if s.Paths.Registry != "/tmp/reg.yaml" {
		t.Errorf("registry = %q", s.Paths.Registry)
	}
	if s.Level() != logx.LevelDebug {
		t.Errorf("level = %v", s.Level())
	}
}

func TestLoad_DefaultFileLocation(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "shipyard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("packager: electron-forge\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Packager != "electron-forge" {
		t.Errorf("packager = %q", s.Packager)
	}
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing file accepted")
	}

	t.Setenv("SHIPYARD_LOG_LEVEL", "chatty")
	if _, err := Load(viper.New(), ""); err == nil {
		t.Error("bad log level accepted")
	}
}

func TestValidate_EmptyTool(t *testing.T) {
	isolate(t)
	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	s.Invoker = " "
	if err := s.Validate(); err == nil {
		t.Error("empty invoker accepted")
	}
}
