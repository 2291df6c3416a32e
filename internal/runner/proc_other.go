//go:build !unix

package runner

import "os/exec"

// setProcessGroup leaves cmd alone; exec.CommandContext kills the direct
// child on cancellation.
func setProcessGroup(cmd *exec.Cmd) {}
