// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package tool provides privilege- and capability-gated skips for tests
// that exercise real mount namespaces, matching the teacher's
// internal/pkg/test/tool/require helper in spirit and reduced to three
// checks; the tests call Root and MountNamespaces, and none calls Seccomp.
package tool

import (
	"os"
	"os/exec"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

// Root skips the test unless it is running as uid 0, required for
// unshare/setns/pivot_root and for capability manipulation.
func Root(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("test requires root privileges")
	}
}

// MountNamespaces checks that CLONE_NEWNS is usable on this kernel by
// unsharing it in a throwaway child process, skipping the test if not.
func MountNamespaces(t *testing.T) {
	cmd := exec.Command("/bin/true")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWNS,
	}
	if err := cmd.Run(); err != nil {
		t.Skipf("mount namespaces unavailable: %s", err)
	}
}

// Seccomp checks that the running kernel supports seccomp filtering.
func Seccomp(t *testing.T) {
	_, _, errno := unix.Syscall(unix.SYS_PRCTL, unix.PR_GET_SECCOMP, 0, 0)
	if errno == unix.EINVAL {
		t.Skip("seccomp is not available on this kernel")
	}
}
