// Package session holds the manifest of the project a user is editing.
//
// A Session has one owner. It is not safe for concurrent use.
package session

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/platform"
)

// Form is the editable view of a manifest.
type Form struct {
	ProductName string `json:"product_name"`
	Version     string `json:"version"`
	Icon        string `json:"icon"`
}

// Session is an open project.
type Session struct {
	dir    string
	policy manifest.Policy
	m      *manifest.Manifest
	fixes  []manifest.Fix
	dirty  bool
}

// Open loads and reconciles the manifest in dir. Corrections are written
// back right away and reported by Fixes.
func Open(dir string, policy manifest.Policy) (*Session, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	m, fixes, err := policy.Open(abs)
	if err != nil {
		return nil, err
	}
	return &Session{dir: abs, policy: policy, m: m, fixes: fixes}, nil
}

// Dir is the absolute project directory.
func (s *Session) Dir() string { return s.dir }

// Fixes lists what reconciliation corrected when the session was opened.
func (s *Session) Fixes() []manifest.Fix { return s.fixes }

// Dirty reports unsaved edits.
func (s *Session) Dirty() bool { return s.dirty }

// Manifest returns a copy of the in-memory manifest.
func (s *Session) Manifest() *manifest.Manifest { return s.m.Clone() }

// Form returns the editable fields the way a form shows them: the build
// product name wins over the top-level one, and version defaults to 1.0.0.
func (s *Session) Form() Form {
	f := Form{ProductName: s.m.ProductName, Version: s.m.Version}
	if b := s.m.Build; b != nil {
		if b.ProductName != "" {
			f.ProductName = b.ProductName
		}
		f.Icon = b.Icon
	}
	if f.Version == "" {
		f.Version = manifest.DefaultVersion
	}
	return f
}

// SetProductName sets the product name at top level and in build.
func (s *Session) SetProductName(name string) {
	s.m.ProductName = name
	s.build().ProductName = name
	s.dirty = true
}

// SetVersion sets the version.
func (s *Session) SetVersion(v string) {
	s.m.Version = v
	s.dirty = true
}

// SetIcon stores path as build.icon. Absolute paths are made relative to the
// project directory.
func (s *Session) SetIcon(path string) error {
	if filepath.IsAbs(path) {
		rel, err := platform.RelativePath(s.dir, path)
		if err != nil {
			return fmt.Errorf("failed to relativize icon path: %w", err)
		}
		path = rel
	}
	s.build().Icon = path
	s.dirty = true
	return nil
}

// ApplyTemplate merges t into the manifest.
func (s *Session) ApplyTemplate(t manifest.Template) {
	s.m = manifest.Apply(s.m, t)
	s.dirty = true
}

// Replace swaps in m wholesale, as an import does.
func (s *Session) Replace(m *manifest.Manifest) {
	s.m = m.Clone()
	s.dirty = true
}

// Save copies the form values into place (build.productName mirrors the
// product name), reconciles, and writes package.json.
func (s *Session) Save() error {
	f := s.Form()
	s.m.ProductName = f.ProductName
	s.m.Version = f.Version
	if f.ProductName != "" || f.Icon != "" {
		b := s.build()
		b.ProductName = f.ProductName
		b.Icon = f.Icon
	}

	saved, err := s.policy.Save(s.dir, s.m)
	if err != nil {
		return err
	}
	s.m = saved
	s.dirty = false
	return nil
}

// ExportProfile writes the in-memory manifest as a profile.
func (s *Session) ExportProfile(w io.Writer) error {
	return manifest.ExportProfile(w, s.m)
}

// ImportProfile replaces the in-memory manifest with the one in r. Nothing
// is written until Save.
func (s *Session) ImportProfile(r io.Reader) error {
	m, err := manifest.ImportProfile(r)
	if err != nil {
		return err
	}
	s.Replace(m)
	return nil
}

func (s *Session) build() *manifest.BuildConfig {
	if s.m.Build == nil {
		s.m.Build = &manifest.BuildConfig{}
	}
	return s.m.Build
}
