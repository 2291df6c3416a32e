//go:build unix

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gurisko/shipyard/internal/apiclient"
	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/daemon"
	"github.com/gurisko/shipyard/internal/platform"
)

// remoteBuild asks the daemon to build and replays its event stream onto
// sink. An error event from the daemon is returned as the build's error.
func remoteBuild(ctx context.Context, dir string, platforms []platform.Platform, sink build.Sink) error {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}

	var failure error
	c := apiclient.New(settings.Paths.Socket)
	err := c.StreamNDJSON(ctx, "/api/build", daemon.BuildRequest{ProjectPath: dir, Platforms: names}, func(line json.RawMessage) error {
		var e build.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("invalid build event: %w", err)
		}
		if e.Type == build.EventError {
			failure = errors.New(e.Text)
			return nil
		}
		e.Deliver(sink)
		return nil
	})
	if apiclient.IsConflict(err) {
		return fmt.Errorf("%s is already being built", dir)
	}
	if err != nil {
		return err
	}
	return failure
}
