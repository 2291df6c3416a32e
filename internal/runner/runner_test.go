//go:build unix

package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun_ExitCode(t *testing.T) {
	tests := []struct {
		name       string
		script     string
		expectCode int
	}{
		{"exit 0", "exit 0", 0},
		{"exit 1", "exit 1", 1},
		{"exit 42", "exit 42", 42},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Run(context.Background(), "sh", []string{"-c", tt.script}, Opts{NoShell: true})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if result.ExitCode != tt.expectCode {
				t.Errorf("exit code = %d, want %d", result.ExitCode, tt.expectCode)
			}
			if result.Success() != (tt.expectCode == 0) {
				t.Errorf("Success() = %v", result.Success())
			}
		})
	}
}

func TestRun_StdoutStderr(t *testing.T) {
	result, err := New().Run(context.Background(), "sh", []string{"-c", "echo stdout; echo stderr >&2"}, Opts{NoShell: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(result.Stdout, "stdout") {
		t.Errorf("stdout = %q, want to contain 'stdout'", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "stderr") {
		t.Errorf("stderr = %q, want to contain 'stderr'", result.Stderr)
	}
}

func TestRun_ThroughShell(t *testing.T) {
	result, err := New().Run(context.Background(), "echo", []string{"it's", "a b"}, Opts{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.TrimSpace(result.Stdout); got != "it's a b" {
		t.Errorf("stdout = %q, want %q", got, "it's a b")
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	_, err := New().Run(context.Background(), "no_such_command_abc123", nil, Opts{NoShell: true})
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("err = %v, want ErrLaunch", err)
	}
}

func TestRun_MissingCommandThroughShellFails(t *testing.T) {
	result, err := New().Run(context.Background(), "no_such_command_abc123", nil, Opts{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Success() {
		t.Error("missing command reported success")
	}
}

func TestRun_Dir(t *testing.T) {
	dir := t.TempDir()
	result, err := New().Run(context.Background(), "pwd", nil, Opts{Dir: dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// On macOS, TempDir may sit behind a /private symlink
	if !strings.HasSuffix(strings.TrimSpace(result.Stdout), strings.TrimPrefix(dir, "/private")) {
		t.Errorf("pwd = %q, want %q", result.Stdout, dir)
	}
}

func TestRun_Env(t *testing.T) {
	result, err := New().Run(context.Background(), "sh", []string{"-c", "echo $TEST_VAR"}, Opts{
		NoShell: true,
		Env:     map[string]string{"TEST_VAR": "hello_world"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(result.Stdout, "hello_world") {
		t.Errorf("with Env, output = %q, want to contain 'hello_world'", result.Stdout)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := New().Run(ctx, "sleep", []string{"10"}, Opts{NoShell: true})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result.Success() {
		t.Error("canceled command reported success")
	}
}
