package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "state", "projects.yaml")
	r, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, file
}

func TestRegisterAndSave(t *testing.T) {
	r, file := newTestRegistry(t)
	dir := t.TempDir()

	p := &Project{Path: dir}
	if err := r.RegisterAndSave(p); err != nil {
		t.Fatalf("RegisterAndSave: %v", err)
	}
	if !IsProjectID(p.ID) {
		t.Errorf("ID = %q, want a uuid", p.ID)
	}
	if p.Name != filepath.Base(p.Path) {
		t.Errorf("Name = %q, want directory name", p.Name)
	}
	if p.RegisteredAt.IsZero() {
		t.Error("RegisteredAt not set")
	}

	if err := r.RegisterAndSave(&Project{Path: dir}); !errors.Is(err, ErrProjectAlreadyExists) {
		t.Errorf("duplicate: err = %v, want ErrProjectAlreadyExists", err)
	}
	if err := r.RegisterAndSave(&Project{Path: filepath.Join(dir, "missing")}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("missing dir: err = %v, want ErrInvalidPath", err)
	}

	again, err := New(file)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.List(); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("persisted list = %+v", got)
	}
}

func TestRemember(t *testing.T) {
	r, _ := newTestRegistry(t)
	dir := t.TempDir()
	clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	first, err := r.Remember(dir, "demo")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if first.Name != "demo" || !first.LastOpenedAt.Equal(clock) || !first.RegisteredAt.Equal(clock) {
		t.Errorf("first = %+v", first)
	}

	clock = clock.Add(time.Hour)
	second, err := r.Remember(dir, "renamed")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID || second.Name != "demo" {
		t.Errorf("second = %+v, want same entry with original name", second)
	}
	if !second.LastOpenedAt.Equal(clock) || !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Errorf("timestamps = %+v", second)
	}
}

func TestList_MostRecentFirst(t *testing.T) {
	r, _ := newTestRegistry(t)
	clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	var dirs []string
	for _, name := range []string{"old", "new", "never"} {
		d := filepath.Join(t.TempDir(), name)
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
		dirs = append(dirs, d)
	}
	if _, err := r.Remember(dirs[0], "old"); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Minute)
	if _, err := r.Remember(dirs[1], "new"); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterAndSave(&Project{Path: dirs[2]}); err != nil {
		t.Fatal(err)
	}

	got := r.List()
	if len(got) != 3 || got[0].Name != "new" || got[1].Name != "old" || got[2].Name != "never" {
		names := make([]string, len(got))
		for i, p := range got {
			names[i] = p.Name
		}
		t.Errorf("order = %v, want [new old never]", names)
	}
}

func TestSharedFileIsReloadedBeforeMutation(t *testing.T) {
	r1, file := newTestRegistry(t)
	r2, err := New(file)
	if err != nil {
		t.Fatal(err)
	}

	if err := r1.RegisterAndSave(&Project{Path: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	// r2 loaded before r1 wrote; its write must not drop r1's entry.
	if err := r2.RegisterAndSave(&Project{Path: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	if err := r1.Load(); err != nil {
		t.Fatal(err)
	}
	if n := len(r1.List()); n != 2 {
		t.Errorf("projects = %d, want 2", n)
	}
}

func TestResolveAndUnregister(t *testing.T) {
	r, _ := newTestRegistry(t)
	dir := t.TempDir()
	p := &Project{Path: dir}
	if err := r.RegisterAndSave(p); err != nil {
		t.Fatal(err)
	}

	byID, err := r.Resolve(p.ID)
	if err != nil || byID.Path != p.Path {
		t.Fatalf("Resolve(id) = %+v, %v", byID, err)
	}
	byPath, err := r.Resolve(dir)
	if err != nil || byPath.ID != p.ID {
		t.Fatalf("Resolve(path) = %+v, %v", byPath, err)
	}
	if _, err := r.Resolve("nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}

	removed, err := r.UnregisterAndSave(p.ID)
	if err != nil || removed.ID != p.ID {
		t.Fatalf("UnregisterAndSave = %+v, %v", removed, err)
	}
	if _, err := r.UnregisterAndSave(p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("second remove: err = %v, want ErrProjectNotFound", err)
	}
}
