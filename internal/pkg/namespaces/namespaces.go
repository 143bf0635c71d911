// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package namespaces wraps the handful of namespace syscalls the
// controller and executor need: unshare to create one, setns to enter one
// by pid or by a previously pinned file descriptor.
package namespaces

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// UnshareMount detaches the calling process into a new mount namespace.
func UnshareMount() error {
	if err := unix.Unshare(unix.CLONE_NEWNS); err != nil {
		return fmt.Errorf("unshare(CLONE_NEWNS): %w", err)
	}
	return nil
}

// EnterMountByPid enters the mount namespace of pid.
func EnterMountByPid(pid int) error {
	path := fmt.Sprintf("/proc/%d/ns/mnt", pid)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return enterFd(int(f.Fd()))
}

// EnterMountFile enters the mount namespace pinned at path (a file under
// MNTDIR with a bind-mounted ns/mnt on it).
func EnterMountFile(path string) error {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer unix.Close(fd)
	return enterFd(fd)
}

func enterFd(fd int) error {
	if err := unix.Setns(fd, unix.CLONE_NEWNS); err != nil {
		return fmt.Errorf("setns(CLONE_NEWNS): %w", err)
	}
	return nil
}
