// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package capabilities

import (
	"errors"
	"testing"
)

func TestBits(t *testing.T) {
	lo, hi := bits([]uint{SETGID, SETUID, SYS_CHROOT, SYS_ADMIN})
	wantLo := uint32(1<<SETGID | 1<<SETUID | 1<<SYS_CHROOT | 1<<SYS_ADMIN)
	wantHi := uint32(0)
	if lo != wantLo {
		t.Errorf("bits() lo = %#x, want %#x", lo, wantLo)
	}
	if hi != wantHi {
		t.Errorf("bits() hi = %#x, want %#x", hi, wantHi)
	}
}

func TestName(t *testing.T) {
	if got := Name(SYS_ADMIN); got != "CAP_SYS_ADMIN" {
		t.Errorf("Name(SYS_ADMIN) = %q", got)
	}
	if got := Name(999); got != "UNKNOWN" {
		t.Errorf("Name(999) = %q, want UNKNOWN", got)
	}
}

func TestRestrictToRequiresPrivilege(t *testing.T) {
	// RestrictTo is exercised end to end only under root; here we just
	// confirm a capset attempt from an unprivileged test runner surfaces
	// our wrapped Error type rather than panicking.
	err := RestrictTo(SYS_ADMIN)
	if err == nil {
		return
	}
	var capErr *Error
	if !errors.As(err, &capErr) {
		t.Errorf("RestrictTo() error type = %T, want *Error", err)
	}
}
