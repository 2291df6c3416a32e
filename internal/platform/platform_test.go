package platform

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gurisko/shipyard/internal/runner"
)

func TestParseAll(t *testing.T) {
	got, err := ParseAll([]string{"linux", "Windows", "win32", "darwin"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Platform{Linux, Windows, Mac}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseAll = %v, want %v", got, want)
	}

	if _, err := ParseAll([]string{"beos"}); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("err = %v, want ErrUnknownPlatform", err)
	}
}

func TestAvailableTargets(t *testing.T) {
	tests := []struct {
		host Platform
		want []Platform
	}{
		{Mac, []Platform{Windows, Mac, Linux}},
		{Windows, []Platform{Windows, Linux}},
		{Linux, []Platform{Windows, Linux}},
	}
	for _, tt := range tests {
		if got := AvailableTargets(tt.host); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("AvailableTargets(%s) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestFromGOOS(t *testing.T) {
	for goos, want := range map[string]Platform{"windows": Windows, "darwin": Mac, "linux": Linux, "freebsd": Linux} {
		if got := FromGOOS(goos); got != want {
			t.Errorf("FromGOOS(%s) = %s, want %s", goos, got, want)
		}
	}
}

func TestRelativePath(t *testing.T) {
	base := filepath.Join("projects", "app")
	got, err := RelativePath(base, filepath.Join(base, "build", "icon.png"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "build/icon.png" {
		t.Errorf("RelativePath = %q, want build/icon.png", got)
	}
}

type recordingRunner struct {
	name string
	args []string
	code int
}

func (r *recordingRunner) Run(_ context.Context, name string, args []string, _ runner.Opts) (runner.Result, error) {
	r.name, r.args = name, args
	return runner.Result{ExitCode: r.code}, nil
}

func (r *recordingRunner) Stream(context.Context, string, []string, runner.Opts) (*runner.Stream, error) {
	panic("not used")
}

func TestOpenFolder(t *testing.T) {
	tests := []struct {
		host    Platform
		code    int
		want    string
		wantErr bool
	}{
		{Linux, 0, "xdg-open", false},
		{Mac, 0, "open", false},
		{Windows, 1, "explorer", false},
		{Linux, 4, "xdg-open", true},
	}
	for _, tt := range tests {
		r := &recordingRunner{code: tt.code}
		err := OpenFolder(context.Background(), r, tt.host, "/tmp/dist")
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.host, err, tt.wantErr)
		}
		if r.name != tt.want || len(r.args) != 1 || r.args[0] != "/tmp/dist" {
			t.Errorf("%s: ran %s %v", tt.host, r.name, r.args)
		}
	}
}
