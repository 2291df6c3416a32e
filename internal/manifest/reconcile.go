package manifest

import "fmt"

const (
	// ShellPackage is the Electron runtime package.
	ShellPackage = "electron"
	// PackagerPackage is the packaging tool package.
	PackagerPackage = "electron-builder"

	DefaultShellVersion    = "^30.0.0"
	DefaultPackagerVersion = "^26.0.12"
	DefaultEntryPoint      = "main.js"
	DefaultVersion         = "1.0.0"

	fallbackDescription = "Electron application"
)

// Fix describes one correction Reconcile applied.
type Fix string

// Policy names the packages the rules apply to. The zero value is not
// useful; start from DefaultPolicy.
type Policy struct {
	ShellPackage string
	ShellVersion string
	EntryPoint   string
}

// DefaultPolicy targets Electron with the versions new projects get.
var DefaultPolicy = Policy{
	ShellPackage: ShellPackage,
	ShellVersion: DefaultShellVersion,
	EntryPoint:   DefaultEntryPoint,
}

// Reconcile applies DefaultPolicy.
func Reconcile(m *Manifest) (*Manifest, []Fix) {
	return DefaultPolicy.Reconcile(m)
}

// EnsureBuildTooling applies DefaultPolicy.
func EnsureBuildTooling(m *Manifest) (*Manifest, bool) {
	return DefaultPolicy.EnsureBuildTooling(m)
}

// Reconcile returns a corrected copy of m and the fixes applied, in rule
// order:
//  1. the shell package moves from dependencies to devDependencies
//  2. an empty description is filled from productName, then name
//  3. an empty entry point is set to the default
//
// m is never modified. Reconciling the result again yields no fixes.
func (p Policy) Reconcile(m *Manifest) (*Manifest, []Fix) {
	out := m.Clone()
	var fixes []Fix

	if p.moveShellToDev(out) {
		fixes = append(fixes, Fix(fmt.Sprintf("moved %s to devDependencies", p.ShellPackage)))
	}

	if out.Description == "" {
		switch {
		case out.ProductName != "":
			out.Description = out.ProductName
		case out.Name != "":
			out.Description = out.Name
		default:
			out.Description = fallbackDescription
		}
		fixes = append(fixes, "added description")
	}

	if out.Main == "" {
		out.Main = p.EntryPoint
		fixes = append(fixes, Fix("set default entry point: "+p.EntryPoint))
	}

	return out, fixes
}

// EnsureBuildTooling is the pre-build variant: it moves the shell package
// to devDependencies and declares it there if it is missing altogether.
// modified reports whether the returned copy differs from m.
func (p Policy) EnsureBuildTooling(m *Manifest) (out *Manifest, modified bool) {
	out = m.Clone()
	modified = p.moveShellToDev(out)

	if out.DevDependencies[p.ShellPackage] == "" {
		if out.DevDependencies == nil {
			out.DevDependencies = make(map[string]string)
		}
		out.DevDependencies[p.ShellPackage] = p.ShellVersion
		modified = true
	}
	return out, modified
}

// moveShellToDev keeps the original version range. dependencies is dropped
// once it is empty so it disappears from the written file.
func (p Policy) moveShellToDev(m *Manifest) bool {
	version, ok := m.Dependencies[p.ShellPackage]
	if !ok {
		return false
	}
	if m.DevDependencies == nil {
		m.DevDependencies = make(map[string]string)
	}
	m.DevDependencies[p.ShellPackage] = version
	delete(m.Dependencies, p.ShellPackage)
	if len(m.Dependencies) == 0 {
		m.Dependencies = nil
	}
	return true
}
