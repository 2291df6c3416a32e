package manifest

import (
	"reflect"
	"strings"
	"testing"
)

func TestReconcile_Rules(t *testing.T) {
	tests := []struct {
		name      string
		in        *Manifest
		wantFixes int
		check     func(t *testing.T, out *Manifest)
	}{
		{
			name:      "empty manifest gets all defaults",
			in:        &Manifest{},
			wantFixes: 2,
			check: func(t *testing.T, out *Manifest) {
				if out.Description != "Electron application" {
					t.Errorf("description = %q", out.Description)
				}
				if out.Main != "main.js" {
					t.Errorf("main = %q", out.Main)
				}
			},
		},
		{
			name:      "description prefers productName",
			in:        &Manifest{Name: "app", ProductName: "My App", Main: "index.js"},
			wantFixes: 1,
			check: func(t *testing.T, out *Manifest) {
				if out.Description != "My App" {
					t.Errorf("description = %q, want My App", out.Description)
				}
				if out.Main != "index.js" {
					t.Errorf("main = %q, want index.js kept", out.Main)
				}
			},
		},
		{
			name:      "description falls back to name",
			in:        &Manifest{Name: "app", Main: "main.js"},
			wantFixes: 1,
			check: func(t *testing.T, out *Manifest) {
				if out.Description != "app" {
					t.Errorf("description = %q, want app", out.Description)
				}
			},
		},
		{
			name: "shell package moves with its version",
			in: &Manifest{
				Name: "app", Description: "d", Main: "main.js",
				Dependencies: map[string]string{"electron": "^28.1.0", "lodash": "^4.0.0"},
			},
			wantFixes: 1,
			check: func(t *testing.T, out *Manifest) {
				if _, ok := out.Dependencies["electron"]; ok {
					t.Error("electron still in dependencies")
				}
				if got := out.DevDependencies["electron"]; got != "^28.1.0" {
					t.Errorf("devDependencies.electron = %q, want ^28.1.0", got)
				}
				if out.Dependencies["lodash"] != "^4.0.0" {
					t.Error("unrelated dependency lost")
				}
			},
		},
		{
			name: "empty dependencies are dropped",
			in: &Manifest{
				Name: "app", Description: "d", Main: "main.js",
				Dependencies:    map[string]string{"electron": "30.0.0"},
				DevDependencies: map[string]string{"electron-builder": "^26.0.12"},
			},
			wantFixes: 1,
			check: func(t *testing.T, out *Manifest) {
				if out.Dependencies != nil {
					t.Errorf("dependencies = %v, want nil", out.Dependencies)
				}
				if len(out.DevDependencies) != 2 {
					t.Errorf("devDependencies = %v", out.DevDependencies)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fixes := Reconcile(tt.in)
			if len(fixes) != tt.wantFixes {
				t.Fatalf("fixes = %v, want %d", fixes, tt.wantFixes)
			}
			tt.check(t, out)
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	in := &Manifest{
		Name:         "app",
		Dependencies: map[string]string{"electron": "^30.0.0"},
	}
	first, fixes := Reconcile(in)
	if len(fixes) == 0 {
		t.Fatal("expected fixes on first pass")
	}
	second, fixes := Reconcile(first)
	if len(fixes) != 0 {
		t.Fatalf("second pass fixes = %v, want none", fixes)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed manifest:\n%+v\n%+v", first, second)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	in := &Manifest{Dependencies: map[string]string{"electron": "^30.0.0"}}
	_, _ = Reconcile(in)
	if in.Dependencies["electron"] != "^30.0.0" {
		t.Error("input dependencies were modified")
	}
	if in.DevDependencies != nil || in.Description != "" || in.Main != "" {
		t.Errorf("input was modified: %+v", in)
	}
}

func TestReconcile_EncodedOmitsEmptyDependencies(t *testing.T) {
	m, err := Decode([]byte(`{"name":"app","dependencies":{"electron":"^30.0.0"}}`))
	if err != nil {
		t.Fatal(err)
	}
	out, _ := Reconcile(m)
	data, err := Encode(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"dependencies"`) {
		t.Errorf("encoded manifest still has dependencies:\n%s", data)
	}
	if !strings.Contains(string(data), `"electron": "^30.0.0"`) {
		t.Errorf("encoded manifest lost electron version:\n%s", data)
	}
}

func TestEnsureBuildTooling(t *testing.T) {
	tests := []struct {
		name         string
		in           *Manifest
		wantModified bool
		wantVersion  string
	}{
		{"already declared", &Manifest{DevDependencies: map[string]string{"electron": "^29.0.0"}}, false, "^29.0.0"},
		{"missing", &Manifest{}, true, "^30.0.0"},
		{"in runtime deps", &Manifest{Dependencies: map[string]string{"electron": "~31.2.0"}}, true, "~31.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, modified := EnsureBuildTooling(tt.in)
			if modified != tt.wantModified {
				t.Errorf("modified = %v, want %v", modified, tt.wantModified)
			}
			if got := out.DevDependencies["electron"]; got != tt.wantVersion {
				t.Errorf("devDependencies.electron = %q, want %q", got, tt.wantVersion)
			}
			if _, ok := out.Dependencies["electron"]; ok {
				t.Error("electron left in dependencies")
			}
		})
	}
}
