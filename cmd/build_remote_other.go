//go:build !unix

package cmd

import (
	"context"
	"errors"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/platform"
)

func remoteBuild(context.Context, string, []platform.Platform, build.Sink) error {
	return errors.New("remote builds need the shipyard daemon, which runs on unix systems only")
}
