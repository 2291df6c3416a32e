package cmd

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/platform"
)

func TestSelectedPlatforms(t *testing.T) {
	tests := []struct {
		name            string
		host            platform.Platform
		win, mac, linux bool
		want            []platform.Platform
		wantErr         bool
	}{
		{"linux and win on linux", platform.Linux, true, false, true, []platform.Platform{platform.Windows, platform.Linux}, false},
		{"all on mac", platform.Mac, true, true, true, platform.All, false},
		{"mac on linux", platform.Linux, false, true, false, nil, true},
		{"none", platform.Windows, false, false, false, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectedPlatforms(tt.host, tt.win, tt.mac, tt.linux)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := selectedPlatforms(platform.Linux, false, false, false); !errors.Is(err, build.ErrNoPlatforms) {
		t.Errorf("err = %v, want ErrNoPlatforms", err)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &completionSink{Sink: &consoleSink{out: &buf}}

	sink.OnStage(build.StageBuilding)
	sink.OnNotice("added electron to devDependencies")
	sink.OnOutput("  • building target=AppImage\n")
	sink.OnComplete(true)

	want := "==> Building...\n" +
		"note: added electron to devDependencies\n" +
		"  • building target=AppImage\n" +
		"Build succeeded\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
	if !sink.success {
		t.Error("success not recorded")
	}
}
