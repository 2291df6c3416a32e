// Package scaffold creates new Electron projects.
package scaffold

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/go-git/go-git/v5"

	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
)

var (
	// ErrAlreadyExists indicates the target directory is already there
	ErrAlreadyExists = errors.New("project directory already exists")
	// ErrInvalidName indicates a project name that cannot be a directory name
	ErrInvalidName = errors.New("invalid project name")
)

const (
	defaultDescription = "My Electron App"
	preloadFile        = "preload.js"
	pageFile           = "index.html"
)

//go:embed files/*.tmpl
var files embed.FS

var (
	jsTemplates   = template.Must(template.ParseFS(files, "files/*.js.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(files, "files/*.html.tmpl"))
)

// Installer installs a project's dependencies.
type Installer interface {
	InstallDependencies(ctx context.Context, dir string) error
}

// Options tune what CreateProject writes.
type Options struct {
	// GitInit makes the project a git repository with a .gitignore.
	GitInit bool

	ShellPackage    string // default manifest.ShellPackage
	ShellVersion    string // default manifest.DefaultShellVersion
	PackagerPackage string // default manifest.PackagerPackage
	PackagerVersion string // default manifest.DefaultPackagerVersion
}

func (o Options) withDefaults() Options {
	if o.ShellPackage == "" {
		o.ShellPackage = manifest.ShellPackage
	}
	if o.ShellVersion == "" {
		o.ShellVersion = manifest.DefaultShellVersion
	}
	if o.PackagerPackage == "" {
		o.PackagerPackage = manifest.PackagerPackage
	}
	if o.PackagerVersion == "" {
		o.PackagerVersion = manifest.DefaultPackagerVersion
	}
	return o
}

type scripts struct {
	Start string `json:"start"`
	Build string `json:"build"`
}

// ValidateName rejects names that are empty, contain a path separator, or
// refer to the current or parent directory.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// CreateProject writes a runnable Electron project into baseDir/name and
// installs its dependencies. An existing baseDir/name is left untouched and
// reported as ErrAlreadyExists. The returned path is only meaningful when the
// error is nil.
func CreateProject(ctx context.Context, inst Installer, baseDir, name string, opts Options) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	opts = opts.withDefaults()

	dir := filepath.Join(baseDir, name)
	if _, err := os.Lstat(dir); err == nil {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, dir)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := writeFiles(dir, name, opts); err != nil {
		return "", err
	}
	if opts.GitInit {
		if err := initRepository(dir); err != nil {
			return "", err
		}
	}

	logx.Infof("scaffold: created %s, installing dependencies", dir)
	if err := inst.InstallDependencies(ctx, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// NewManifest is the package.json of a fresh project.
func NewManifest(name string, opts Options) (*manifest.Manifest, error) {
	opts = opts.withDefaults()
	m := &manifest.Manifest{
		Name:        name,
		Version:     manifest.DefaultVersion,
		Description: defaultDescription,
		Main:        manifest.DefaultEntryPoint,
		DevDependencies: map[string]string{
			opts.ShellPackage:    opts.ShellVersion,
			opts.PackagerPackage: opts.PackagerVersion,
		},
	}
	err := m.SetRaw("scripts", scripts{
		Start: opts.ShellPackage + " .",
		Build: opts.PackagerPackage,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func writeFiles(dir, name string, opts Options) error {
	m, err := NewManifest(name, opts)
	if err != nil {
		return err
	}
	if err := manifest.WriteFile(dir, m); err != nil {
		return err
	}

	data := struct {
		Name    string
		Preload string
		Page    string
	}{name, preloadFile, pageFile}

	outputs := []struct {
		file   string
		render func(*bytes.Buffer) error
	}{
		{manifest.DefaultEntryPoint, func(b *bytes.Buffer) error { return jsTemplates.ExecuteTemplate(b, "main.js.tmpl", data) }},
		{preloadFile, func(b *bytes.Buffer) error { return jsTemplates.ExecuteTemplate(b, "preload.js.tmpl", data) }},
		{pageFile, func(b *bytes.Buffer) error { return htmlTemplates.ExecuteTemplate(b, "index.html.tmpl", data) }},
	}
	for _, out := range outputs {
		var buf bytes.Buffer
		if err := out.render(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", out.file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, out.file), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out.file, err)
		}
	}
	return nil
}

var ignored = []string{"node_modules/", "dist/"}

func initRepository(dir string) error {
	if _, err := git.PlainInit(dir, false); err != nil {
		return fmt.Errorf("failed to init git repository: %w", err)
	}
	content := strings.Join(ignored, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}
