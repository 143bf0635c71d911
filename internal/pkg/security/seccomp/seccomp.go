// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package seccomp installs the controller's strict allow-list filter
// (§4.1): NO_NEW_PRIVS set, default action kill-process, and nothing
// admitted beyond the fixed syscall set the controller needs to build and
// tear down mount namespaces.
package seccomp

import (
	"fmt"

	lseccomp "github.com/seccomp/libseccomp-golang"
)

// AllowedSyscalls is the exact allow-list from §4.1. Anything else traps
// the default action and kills the process.
var AllowedSyscalls = []string{
	"brk", "clone", "clone3", "close", "exit", "exit_group",
	"chmod", "fchmod", "fchmodat", "fcntl", "getdents", "getdents64",
	"getppid", "mkdir", "mkdirat", "mount", "fstat", "newfstatat",
	"openat", "open", "pivot_root", "read", "readv", "rmdir",
	"sendfile", "set_robust_list", "symlink", "symlinkat", "umount2",
	"unlink", "unlinkat", "unshare", "wait4", "write", "writev",
}

// Install builds and loads the allow-list filter for the calling process.
// It must be called after argument parsing but before any filesystem work,
// per §4.1.
func Install() error {
	filter, err := lseccomp.NewFilter(lseccomp.ActKillProcess)
	if err != nil {
		return fmt.Errorf("seccomp: creating filter: %w", err)
	}
	defer filter.Release()

	if err := filter.SetNoNewPrivsBit(true); err != nil {
		return fmt.Errorf("seccomp: setting no-new-privs: %w", err)
	}

	for _, name := range AllowedSyscalls {
		id, err := lseccomp.GetSyscallFromName(name)
		if err != nil {
			// Not every syscall name exists on every architecture
			// (e.g. open/open without the at-suffixed variant on
			// some platforms); skip rather than fail the filter.
			continue
		}
		if err := filter.AddRule(id, lseccomp.ActAllow); err != nil {
			return fmt.Errorf("seccomp: adding rule for %s: %w", name, err)
		}
	}

	if err := filter.Load(); err != nil {
		return fmt.Errorf("seccomp: loading filter: %w", err)
	}
	return nil
}
