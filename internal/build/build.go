// Package build runs the packaging workflow for one project: make sure the
// packager and the Electron runtime are in place, then run electron-builder
// for the requested platforms and relay its output.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gurisko/shipyard/internal/history"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/platform"
	"github.com/gurisko/shipyard/internal/toolchain"
)

// Stage names a step of the workflow.
type Stage string

const (
	StageCheckingTooling        Stage = "checking-tooling"
	StageInstallingTooling      Stage = "installing-tooling"
	StageCheckingManifest       Stage = "checking-manifest"
	StageInstallingDependencies Stage = "installing-dependencies"
	StageBuilding               Stage = "building"
)

var (
	// ErrNoPlatforms indicates a request without any target platform
	ErrNoPlatforms = errors.New("no platforms selected")
	// ErrBuildFailed indicates electron-builder exited non-zero
	ErrBuildFailed = errors.New("build failed")

	ErrToolingInstallFailed    = toolchain.ErrToolingInstallFailed
	ErrDependencyInstallFailed = toolchain.ErrDependencyInstallFailed
)

// StageError reports the stage a run stopped at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Request asks for one build of the project in ProjectDir.
type Request struct {
	ProjectDir string
	Platforms  []platform.Platform
}

// Flags maps platforms to electron-builder flags in canonical
// win, mac, linux order, whatever the input order. Duplicates collapse.
func Flags(platforms []platform.Platform) []string {
	want := make(map[platform.Platform]bool, len(platforms))
	for _, p := range platforms {
		want[p] = true
	}
	var flags []string
	for _, p := range platform.All {
		if want[p] {
			flags = append(flags, "--"+string(p))
		}
	}
	return flags
}

// Recorder stores a summary of each run.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

// Orchestrator runs builds one step at a time. It holds no per-build state,
// so one value can serve any number of sequential requests.
type Orchestrator struct {
	Toolchain *toolchain.Toolchain
	Policy    manifest.Policy

	// Recorder is optional.
	Recorder Recorder

	now func() time.Time
}

// New creates an Orchestrator.
func New(tc *toolchain.Toolchain, policy manifest.Policy) *Orchestrator {
	return &Orchestrator{Toolchain: tc, Policy: policy, now: time.Now}
}

// Run executes the workflow for req, reporting progress to sink. A failing
// step stops the run and comes back as a *StageError; nothing is retried.
// When the packager ran, sink.OnComplete has been called exactly once by the
// time Run returns, and a failed build also returns ErrBuildFailed.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) error {
	flags := Flags(req.Platforms)
	if len(flags) == 0 {
		return ErrNoPlatforms
	}

	counter := &countingSink{Sink: sink}
	started := o.clock()
	err := o.run(ctx, req.ProjectDir, flags, counter)
	o.record(ctx, req.ProjectDir, flags, started, counter.bytes, err)
	return err
}

func (o *Orchestrator) run(ctx context.Context, dir string, flags []string, sink Sink) error {
	tools := o.Toolchain.Tools

	sink.OnStage(StageCheckingTooling)
	if err := manifest.Exists(dir); err != nil {
		return &StageError{Stage: StageCheckingTooling, Err: err}
	}
	if !manifest.HasDevDependency(dir, tools.Packager) {
		sink.OnStage(StageInstallingTooling)
		if err := o.Toolchain.InstallPackager(ctx, dir); err != nil {
			return &StageError{Stage: StageInstallingTooling, Err: err}
		}
	}

	sink.OnStage(StageCheckingManifest)
	modified, err := o.Policy.EnsureBuildToolingFile(dir)
	if err != nil {
		return &StageError{Stage: StageCheckingManifest, Err: err}
	}
	if modified {
		sink.OnNotice(fmt.Sprintf("added %s to devDependencies", o.Policy.ShellPackage))
	}

	if !manifest.Installed(dir, tools.ShellPackage) {
		sink.OnStage(StageInstallingDependencies)
		sink.OnNotice("installing project dependencies")
		if err := o.Toolchain.InstallDependencies(ctx, dir); err != nil {
			return &StageError{Stage: StageInstallingDependencies, Err: err}
		}
	}

	sink.OnStage(StageBuilding)
	logx.Debugf("build: %s %s %s in %s", tools.Invoker, tools.Packager, strings.Join(flags, " "), dir)
	stream, err := o.Toolchain.Package(ctx, dir, flags)
	if err != nil {
		return &StageError{Stage: StageBuilding, Err: err}
	}
	result, err := stream.Drain(sink.OnOutput)
	success := err == nil && result.Success()
	sink.OnComplete(success)
	if err != nil {
		return &StageError{Stage: StageBuilding, Err: err}
	}
	if !success {
		return &StageError{Stage: StageBuilding, Err: fmt.Errorf("%w: exit code %d", ErrBuildFailed, result.ExitCode)}
	}
	return nil
}

func (o *Orchestrator) clock() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}

func (o *Orchestrator) record(ctx context.Context, dir string, flags []string, started time.Time, outBytes int64, runErr error) {
	if o.Recorder == nil {
		return
	}
	platforms := make([]string, len(flags))
	for i, f := range flags {
		platforms[i] = strings.TrimPrefix(f, "--")
	}
	rec := history.Record{
		ProjectPath: dir,
		Platforms:   strings.Join(platforms, ","),
		StartedAt:   started,
		FinishedAt:  o.clock(),
		Success:     runErr == nil,
		OutputBytes: outBytes,
	}
	var se *StageError
	if errors.As(runErr, &se) {
		rec.FailedStage = string(se.Stage)
	}
	// A canceled build still gets its history row.
	if err := o.Recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		logx.Warnf("build: failed to record history: %v", err)
	}
}
