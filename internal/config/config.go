// Package config loads shipyard settings from config.yaml, SHIPYARD_*
// environment variables and built-in defaults, in that order of precedence
// (environment first).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/paths"
	"github.com/gurisko/shipyard/internal/scaffold"
	"github.com/gurisko/shipyard/internal/toolchain"
)

const EnvPrefix = "SHIPYARD"

// Settings is the decoded configuration.
type Settings struct {
	LogLevel string `mapstructure:"log_level"`

	Installer    string `mapstructure:"installer"`
	Invoker      string `mapstructure:"invoker"`
	Packager     string `mapstructure:"packager"`
	ShellPackage string `mapstructure:"shell_package"`

	ShellVersion    string `mapstructure:"shell_version"`
	PackagerVersion string `mapstructure:"packager_version"`
	EntryPoint      string `mapstructure:"entry_point"`

	Paths Paths `mapstructure:"paths"`
}

// Paths locates shipyard's own files.
type Paths struct {
	Socket    string `mapstructure:"socket"`
	PID       string `mapstructure:"pid"`
	Registry  string `mapstructure:"registry"`
	History   string `mapstructure:"history"`
	Templates string `mapstructure:"templates"`
}

// SetDefaults registers every key with its default so environment
// variables are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	tools := toolchain.DefaultTools()
	v.SetDefault("log_level", "warn")
	v.SetDefault("installer", tools.Installer)
	v.SetDefault("invoker", tools.Invoker)
	v.SetDefault("packager", tools.Packager)
	v.SetDefault("shell_package", tools.ShellPackage)
	v.SetDefault("shell_version", manifest.DefaultShellVersion)
	v.SetDefault("packager_version", manifest.DefaultPackagerVersion)
	v.SetDefault("entry_point", manifest.DefaultEntryPoint)
	v.SetDefault("paths.socket", paths.DefaultSocketPath())
	v.SetDefault("paths.pid", paths.DefaultPIDPath())
	v.SetDefault("paths.registry", paths.DefaultRegistryPath())
	v.SetDefault("paths.history", paths.DefaultHistoryPath())
	v.SetDefault("paths.templates", paths.DefaultTemplatesDir())
}

// Load reads configuration into v and decodes it. An explicit file must
// exist; without one, config.yaml in the config directory is optional.
func Load(v *viper.Viper, file string) (Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(paths.DefaultConfigDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings shipyard cannot run with.
func (s Settings) Validate() error {
	if _, err := logx.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	for key, val := range map[string]string{
		"installer":     s.Installer,
		"invoker":       s.Invoker,
		"packager":      s.Packager,
		"shell_package": s.ShellPackage,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("invalid config: %s is empty", key)
		}
	}
	return nil
}

// Level is the parsed log level.
func (s Settings) Level() logx.Level {
	l, _ := logx.ParseLevel(s.LogLevel)
	return l
}

// Tools returns the toolchain names.
func (s Settings) Tools() toolchain.Tools {
	return toolchain.Tools{
		Installer:    s.Installer,
		Invoker:      s.Invoker,
		Packager:     s.Packager,
		ShellPackage: s.ShellPackage,
	}
}

// Policy returns the reconciliation policy.
func (s Settings) Policy() manifest.Policy {
	return manifest.Policy{
		ShellPackage: s.ShellPackage,
		ShellVersion: s.ShellVersion,
		EntryPoint:   s.EntryPoint,
	}
}

// ScaffoldOptions returns project creation options.
func (s Settings) ScaffoldOptions(gitInit bool) scaffold.Options {
	return scaffold.Options{
		GitInit:         gitInit,
		ShellPackage:    s.ShellPackage,
		ShellVersion:    s.ShellVersion,
		PackagerPackage: s.Packager,
		PackagerVersion: s.PackagerVersion,
	}
}
