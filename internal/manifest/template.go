package manifest

import (
	"errors"
	"fmt"
	"maps"
	"sort"
)

// ErrUnknownTemplate indicates no template has the requested key
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a named preset merged onto a manifest on demand.
type Template struct {
	Key     string    `json:"key"`
	Summary string    `json:"summary"`
	Preset  *Manifest `json:"preset"`
}

// Builtin returns the fixed template catalog. Each call returns fresh values.
func Builtin() []Template {
	python := &BuildConfig{
		AppID:       "com.example.pythonapp",
		ProductName: "My App (Python Backend)",
		Directories: &Directories{Output: "dist"},
		Win:         NewTarget("nsis"),
	}
	_ = python.SetRaw("extraResources", []map[string]string{{"from": "backend/", "to": "backend/"}})

	return []Template{
		{
			Key:     "basic",
			Summary: "Windows installer, macOS disk image and Linux AppImage",
			Preset: &Manifest{
				Name:        "my-electron-app",
				ProductName: "My Electron App",
				Version:     "1.0.0",
				Description: "My awesome Electron application",
				Main:        DefaultEntryPoint,
				Build: &BuildConfig{
					AppID:       "com.example.myapp",
					ProductName: "My Electron App",
					Directories: &Directories{Output: "dist"},
					Win:         NewTarget("nsis"),
					Mac:         NewTarget("dmg"),
					Linux:       NewTarget("AppImage"),
				},
			},
		},
		{
			Key:     "python-backend",
			Summary: "Windows installer bundling a local Python backend from backend/",
			Preset: &Manifest{
				Name:        "my-app-with-python",
				ProductName: "My App (Python Backend)",
				Version:     "1.0.0",
				Description: "Electron app with local Python backend",
				Main:        DefaultEntryPoint,
				Build:       python,
			},
		},
		{
			Key:     "frontend-only",
			Summary: "Portable Windows executable and macOS zip",
			Preset: &Manifest{
				Name:        "my-frontend-app",
				ProductName: "My Frontend App",
				Version:     "1.0.0",
				Description: "Frontend-only Electron app",
				Main:        DefaultEntryPoint,
				Build: &BuildConfig{
					AppID:       "com.example.frontend",
					ProductName: "My Frontend App",
					Directories: &Directories{Output: "dist"},
					Win:         NewTarget("portable"),
					Mac:         NewTarget("zip"),
				},
			},
		},
	}
}

// Catalog merges user templates over the built-in ones; a user template
// with a built-in key replaces it. The result is sorted by key.
func Catalog(user []Template) []Template {
	byKey := make(map[string]Template)
	for _, t := range Builtin() {
		byKey[t.Key] = t
	}
	for _, t := range user {
		byKey[t.Key] = t
	}
	out := make([]Template, 0, len(byKey))
	for _, t := range byKey {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup finds a template by key.
func Lookup(catalog []Template, key string) (Template, error) {
	for _, t := range catalog {
		if t.Key == key {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
}

// Apply merges t onto a copy of m. Top-level members set in the preset
// replace the manifest's; inside build the merge is repeated one level down,
// so build members the preset does not mention survive.
func Apply(m *Manifest, t Template) *Manifest {
	out := m.Clone()
	p := t.Preset
	if p == nil {
		return out
	}

	if p.Name != "" {
		out.Name = p.Name
	}
	if p.ProductName != "" {
		out.ProductName = p.ProductName
	}
	if p.Version != "" {
		out.Version = p.Version
	}
	if p.Description != "" {
		out.Description = p.Description
	}
	if p.Main != "" {
		out.Main = p.Main
	}
	if p.Dependencies != nil {
		out.Dependencies = maps.Clone(p.Dependencies)
	}
	if p.DevDependencies != nil {
		out.DevDependencies = maps.Clone(p.DevDependencies)
	}
	out.extra = out.extra.merge(p.extra)

	if p.Build != nil {
		out.Build = mergeBuild(out.Build, p.Build)
	}
	return out
}

func mergeBuild(dst, src *BuildConfig) *BuildConfig {
	out := dst.Clone()
	if out == nil {
		out = &BuildConfig{}
	}
	if src.AppID != "" {
		out.AppID = src.AppID
	}
	if src.ProductName != "" {
		out.ProductName = src.ProductName
	}
	if src.Directories != nil {
		out.Directories = src.Directories.Clone()
	}
	if src.Win != nil {
		out.Win = src.Win.Clone()
	}
	if src.Mac != nil {
		out.Mac = src.Mac.Clone()
	}
	if src.Linux != nil {
		out.Linux = src.Linux.Clone()
	}
	if src.Icon != "" {
		out.Icon = src.Icon
	}
	out.extra = out.extra.merge(src.extra)
	return out
}
