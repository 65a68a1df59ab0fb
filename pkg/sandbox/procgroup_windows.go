//go:build windows

package sandbox

import "os/exec"

// Children of a timed-out command could outlive it here, so host execution
// is refused.
func checkPlatform() error {
	return ErrUnsupportedPlatform
}

func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {}
