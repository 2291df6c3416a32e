// Package runner executes external tools for shipyard, either capturing their
// output or streaming it as it arrives.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/gurisko/shipyard/internal/logx"
)

// ErrLaunch indicates the process could not be started at all
// (executable missing, permission denied).
var ErrLaunch = errors.New("failed to launch command")

// Result holds the outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit code.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Opts holds optional parameters for command execution.
type Opts struct {
	Dir string            // working directory (optional)
	Env map[string]string // extra environment variables (overlay)

	// NoShell runs the executable directly instead of through the host
	// shell. By default commands go through sh -c / cmd /C so they parse
	// the same way as when typed by hand.
	NoShell bool
}

// Runner is the interface for running external commands. Implementations
// must be safe to stub in tests.
type Runner interface {
	// Run executes a command and captures its output. A non-zero exit is
	// reported through Result.ExitCode with a nil error; the error is
	// reserved for launch failures, I/O failures and ctx cancellation.
	Run(ctx context.Context, name string, args []string, opts Opts) (Result, error)

	// Stream starts a command and returns as soon as it is running.
	Stream(ctx context.Context, name string, args []string, opts Opts) (*Stream, error)
}

// waitDelay bounds how long a canceled command may keep its output open.
const waitDelay = 2 * time.Second

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// New creates an ExecRunner.
func New() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) command(ctx context.Context, name string, args []string, opts Opts) *exec.Cmd {
	var cmd *exec.Cmd
	if opts.NoShell {
		cmd = exec.CommandContext(ctx, name, args...)
	} else {
		shell, shellArgs := ShellCommand(runtime.GOOS, name, args)
		cmd = exec.CommandContext(ctx, shell, shellArgs...)
	}
	// Cancellation reaches the tool's descendants as well.
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	logx.Debugf("runner: %v (dir=%s)", cmd.Args, cmd.Dir)
	return cmd
}

// Run executes the command and captures stdout/stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts Opts) (Result, error) {
	cmd := r.command(ctx, name, args, opts)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %v", ErrLaunch, name, err)
	}
	err := cmd.Wait()

	result, err := exitResult(ctx, err)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result, err
}

// exitResult maps the error from cmd.Wait onto a Result.
func exitResult(ctx context.Context, err error) (Result, error) {
	if err == nil {
		return Result{ExitCode: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{ExitCode: exitErr.ExitCode()}, ctxErr
		}
		return Result{ExitCode: exitErr.ExitCode()}, nil
	}
	return Result{ExitCode: -1}, err
}
