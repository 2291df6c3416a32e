// Package manifest models the package.json of an Electron project and the
// rules that keep it packageable by electron-builder.
package manifest

import (
	"encoding/json"
	"maps"

	"github.com/tidwall/gjson"
)

// Manifest is the subset of package.json shipyard edits. Every other member
// is carried through reads and writes untouched.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	ProductName     string            `json:"productName,omitempty"`
	Version         string            `json:"version,omitempty"`
	Description     string            `json:"description,omitempty"`
	Main            string            `json:"main,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Build           *BuildConfig      `json:"build,omitempty"`

	extra extras
}

// BuildConfig is the electron-builder "build" section.
type BuildConfig struct {
	AppID       string       `json:"appId,omitempty"`
	ProductName string       `json:"productName,omitempty"`
	Directories *Directories `json:"directories,omitempty"`
	Win         *Target      `json:"win,omitempty"`
	Mac         *Target      `json:"mac,omitempty"`
	Linux       *Target      `json:"linux,omitempty"`
	Icon        string       `json:"icon,omitempty"`

	extra extras
}

// Directories is build.directories.
type Directories struct {
	Output string `json:"output,omitempty"`

	extra extras
}

// Target is a per-platform descriptor such as build.win. The target member
// may be a string, a list of strings or a list of {target, arch} objects, so
// it is kept raw.
type Target struct {
	Target json.RawMessage `json:"target,omitempty"`
	Icon   string          `json:"icon,omitempty"`

	extra extras
}

// NewTarget returns a descriptor for a single named target ("nsis", "dmg").
func NewTarget(name string) *Target {
	raw, _ := json.Marshal(name)
	return &Target{Target: raw}
}

// Names lists the target names in the descriptor.
func (t *Target) Names() []string {
	if t == nil || len(t.Target) == 0 {
		return nil
	}
	res := gjson.ParseBytes(t.Target)
	if res.Type == gjson.String {
		return []string{res.String()}
	}
	var names []string
	res.ForEach(func(_, v gjson.Result) bool {
		switch {
		case v.Type == gjson.String:
			names = append(names, v.String())
		case v.IsObject():
			if n := v.Get("target"); n.Exists() {
				names = append(names, n.String())
			}
		}
		return true
	})
	return names
}

// Raw returns an unknown top-level member, if present.
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	return m.extra.get(key)
}

// SetRaw stores v as an unmodelled top-level member, replacing any existing
// value with the same key.
func (m *Manifest) SetRaw(key string, v any) error {
	raw, err := marshalNoEscape(v)
	if err != nil {
		return err
	}
	m.extra = m.extra.set(key, raw)
	return nil
}

// OutputDir returns build.directories.output, defaulting to "dist" like
// electron-builder does.
func (m *Manifest) OutputDir() string {
	if m.Build != nil && m.Build.Directories != nil && m.Build.Directories.Output != "" {
		return m.Build.Directories.Output
	}
	return "dist"
}

// Clone returns a deep copy of m. A nil manifest clones to an empty one.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return &Manifest{}
	}
	out := *m
	out.Dependencies = maps.Clone(m.Dependencies)
	out.DevDependencies = maps.Clone(m.DevDependencies)
	out.Build = m.Build.Clone()
	out.extra = m.extra.clone()
	return &out
}

// Clone returns a deep copy of b.
func (b *BuildConfig) Clone() *BuildConfig {
	if b == nil {
		return nil
	}
	out := *b
	out.Directories = b.Directories.Clone()
	out.Win = b.Win.Clone()
	out.Mac = b.Mac.Clone()
	out.Linux = b.Linux.Clone()
	out.extra = b.extra.clone()
	return &out
}

// SetRaw stores v as an unmodelled build member.
func (b *BuildConfig) SetRaw(key string, v any) error {
	raw, err := marshalNoEscape(v)
	if err != nil {
		return err
	}
	b.extra = b.extra.set(key, raw)
	return nil
}

// Raw returns an unknown build member, if present.
func (b *BuildConfig) Raw(key string) (json.RawMessage, bool) {
	return b.extra.get(key)
}

func (d *Directories) Clone() *Directories {
	if d == nil {
		return nil
	}
	out := *d
	out.extra = d.extra.clone()
	return &out
}

func (t *Target) Clone() *Target {
	if t == nil {
		return nil
	}
	out := *t
	if t.Target != nil {
		out.Target = append(json.RawMessage(nil), t.Target...)
	}
	out.extra = t.extra.clone()
	return &out
}

// The aliases drop the methods below so encoding/json falls back to the
// struct tags.
type (
	manifestFields    Manifest
	buildFields       BuildConfig
	directoriesFields Directories
	targetFields      Target
)

func (m *Manifest) UnmarshalJSON(data []byte) error {
	var f manifestFields
	x, err := decodeObject(data, &f)
	if err != nil {
		return err
	}
	*m = Manifest(f)
	m.extra = x
	return nil
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	return encodeObject(manifestFields(m), m.extra)
}

func (b *BuildConfig) UnmarshalJSON(data []byte) error {
	var f buildFields
	x, err := decodeObject(data, &f)
	if err != nil {
		return err
	}
	*b = BuildConfig(f)
	b.extra = x
	return nil
}

func (b BuildConfig) MarshalJSON() ([]byte, error) {
	return encodeObject(buildFields(b), b.extra)
}

func (d *Directories) UnmarshalJSON(data []byte) error {
	var f directoriesFields
	x, err := decodeObject(data, &f)
	if err != nil {
		return err
	}
	*d = Directories(f)
	d.extra = x
	return nil
}

func (d Directories) MarshalJSON() ([]byte, error) {
	return encodeObject(directoriesFields(d), d.extra)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var f targetFields
	x, err := decodeObject(data, &f)
	if err != nil {
		return err
	}
	*t = Target(f)
	t.extra = x
	return nil
}

func (t Target) MarshalJSON() ([]byte, error) {
	return encodeObject(targetFields(t), t.extra)
}
