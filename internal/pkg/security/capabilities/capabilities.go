// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package capabilities implements the restrict_to capability gate every
// privileged binary calls on entry (§4.1): permitted and effective are
// reset to exactly the given set, inheritable is cleared.
package capabilities

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Linux capability numbers this repository cares about. Values come from
// include/uapi/linux/capability.h. The controller requests SYS_ADMIN and
// the executor SYS_CHROOT and SYS_ADMIN; SETGID and SETUID are named but
// requested by neither.
const (
	SETGID     = 6
	SETUID     = 7
	SYS_CHROOT = 18
	SYS_ADMIN  = 21
)

var names = map[uint]string{
	SETGID:     "CAP_SETGID",
	SETUID:     "CAP_SETUID",
	SYS_CHROOT: "CAP_SYS_CHROOT",
	SYS_ADMIN:  "CAP_SYS_ADMIN",
}

// Error wraps a failed capability operation, matching the CapabilityError
// taxonomy entry in §7.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("capability: %s: %s", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func bits(caps []uint) (lo, hi uint32) {
	for _, c := range caps {
		if c < 32 {
			lo |= 1 << c
		} else {
			hi |= 1 << (c - 32)
		}
	}
	return
}

// RestrictTo resets the calling process's capability sets so that
// PERMITTED == EFFECTIVE == caps and INHERITABLE is empty. It is fatal by
// convention at the call site: callers should treat a non-nil error as
// unrecoverable and abort the process (the controller's re-exec'd entry
// points call lslog.Fatalf; the lsl CLI and the executor log the error and
// exit with status 1).
func RestrictTo(caps ...uint) error {
	var header unix.CapUserHeader
	header.Version = unix.LINUX_CAPABILITY_VERSION_3

	var data [2]unix.CapUserData
	lo, hi := bits(caps)
	data[0].Effective, data[0].Permitted, data[0].Inheritable = lo, lo, 0
	data[1].Effective, data[1].Permitted, data[1].Inheritable = hi, hi, 0

	if err := unix.Capset(&header, &data[0]); err != nil {
		return &Error{Op: "capset", Err: err}
	}
	return nil
}

// Name returns the canonical CAP_* name for a capability number, or
// "UNKNOWN" if this package does not recognise it.
func Name(cap uint) string {
	if n, ok := names[cap]; ok {
		return n
	}
	return "UNKNOWN"
}
