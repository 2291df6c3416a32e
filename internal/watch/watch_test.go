package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gurisko/shipyard/internal/manifest"
)

func TestWatcher_FixesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "package.json")
	if err := os.WriteFile(pkg, []byte(`{"name":"app","description":"d","main":"main.js"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan Change, 16)
	w := &Watcher{
		Dir:      dir,
		Policy:   manifest.DefaultPolicy,
		Debounce: 20 * time.Millisecond,
		OnChange: func(c Change) { changes <- c },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	initial := next(t, changes)
	if initial.Err != nil || len(initial.Fixes) != 0 {
		t.Fatalf("initial = %+v", initial)
	}

	if err := os.WriteFile(pkg, []byte(`{"name":"app","dependencies":{"electron":"^30.2.0"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait for the change that carries fixes; the write-back that follows
	// settles with none.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			// A read can race the truncate of WriteFile; a later event
			// follows.
			if c.Err != nil || len(c.Fixes) == 0 {
				continue
			}
			if len(c.Fixes) != 3 {
				t.Errorf("fixes = %v, want 3", c.Fixes)
			}
			m, err := manifest.ReadFile(dir)
			if err != nil {
				t.Fatal(err)
			}
			if m.DevDependencies["electron"] != "^30.2.0" || m.Dependencies != nil {
				t.Errorf("not fixed on disk: %+v", m)
			}
			return
		case <-deadline:
			t.Fatal("no change with fixes observed")
		}
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "gone"), Policy: manifest.DefaultPolicy}
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func next(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}
