//go:build !windows

package process

import "syscall"

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best effort: the launcher kills the browser itself afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
