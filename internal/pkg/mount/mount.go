// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package mount wraps the mount(2)/umount2(2)/pivot_root(2) calls the
// controller's namespace constructor and teardown issue, adding the debug
// trace required by §7 ("each mount call logs mount(src, tgt, ...) = rc").
package mount

import (
	"fmt"

	"github.com/blenk92/lsl/internal/pkg/lslog"
	"golang.org/x/sys/unix"
)

// Raw performs a mount(2) call with the given flags and data, tracing it
// at debug level.
func Raw(source, target, fstype string, flags uintptr, data string) error {
	err := unix.Mount(source, target, fstype, flags, data)
	lslog.Debugf("mount(%s, %s, %s, %#x) = %v", source, target, fstype, flags, err)
	if err != nil {
		return fmt.Errorf("mount %s -> %s (%s): %w", source, target, fstype, err)
	}
	return nil
}

// Bind performs a plain MS_BIND mount of source onto target.
func Bind(source, target string) error {
	return Raw(source, target, "", unix.MS_BIND, "")
}

// BindRec performs a recursive MS_BIND|MS_REC mount of source onto target.
func BindRec(source, target string) error {
	return Raw(source, target, "", unix.MS_BIND|unix.MS_REC, "")
}

// Private marks target (already a mount point) MS_PRIVATE.
func Private(target string) error {
	return Raw("", target, "", unix.MS_PRIVATE, "")
}

// SlaveRec marks target (and its submounts) MS_SLAVE|MS_REC, so that
// mounts performed underneath it stop propagating back to the host.
func SlaveRec(target string) error {
	return Raw("", target, "", unix.MS_SLAVE|unix.MS_REC, "")
}

// Filesystem mounts a virtual filesystem of the given type at target, e.g.
// proc, sysfs, devpts, tmpfs, mqueue, hugetlbfs.
func Filesystem(fstype, target string) error {
	return Raw(fstype, target, fstype, 0, "")
}

// Unmount performs umount2(2) with flags 0, tracing the result.
func Unmount(target string) error {
	err := unix.Unmount(target, 0)
	lslog.Debugf("umount2(%s) = %v", target, err)
	if err != nil {
		return fmt.Errorf("unmount %s: %w", target, err)
	}
	return nil
}

// PivotRoot swaps the process root to newRoot, stashing the old root at
// putOld (both must be on the same mount point already, i.e. newRoot must
// already have been self-bind-mounted).
func PivotRoot(newRoot, putOld string) error {
	err := unix.PivotRoot(newRoot, putOld)
	lslog.Debugf("pivot_root(%s, %s) = %v", newRoot, putOld, err)
	if err != nil {
		return fmt.Errorf("pivot_root %s -> %s: %w", newRoot, putOld, err)
	}
	return nil
}
