// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"os"

	"github.com/blenk92/lsl/cmd/internal/cli"
	"github.com/blenk92/lsl/internal/app/lsl"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/pin"
	"github.com/blenk92/lsl/internal/pkg/security/capabilities"
	"github.com/blenk92/lsl/internal/pkg/security/seccomp"
)

// restrictSelf re-applies the CAP_SYS_ADMIN-only capability gate and the
// seccomp allow-list. execve resets a root process's capabilities to its
// full bounding set, so every re-exec'd entry point below redoes the
// capability restriction persistentPreRun applied in the parent (§4.1, §5).
// The seccomp filter is installed here unconditionally: --disable-seccomp
// given to the parent is not passed on to the re-exec'd children.
func restrictSelf() {
	if err := capabilities.RestrictTo(capabilities.SYS_ADMIN); err != nil {
		lslog.Fatalf("%s", err)
	}
	if err := seccomp.Install(); err != nil {
		lslog.Fatalf("%s", err)
	}
}

// main dispatches to one of the two hidden re-exec subcommands before
// handing off to cobra, since neither the pinner nor the per-container
// namespace builder is a user-facing command (§9: self re-exec idiom).
func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case pin.ReexecArg:
			if len(os.Args) != 3 {
				lslog.Fatalf("usage: %s %s <pinfile>", os.Args[0], pin.ReexecArg)
			}
			restrictSelf()
			if err := pin.Run(os.Args[2]); err != nil {
				lslog.Fatalf("%s", err)
			}
			return
		case lsl.BuildNamespaceArg:
			if len(os.Args) != 5 {
				lslog.Fatalf("usage: %s %s <mountdir> <configpath> <container>", os.Args[0], lsl.BuildNamespaceArg)
			}
			restrictSelf()
			if err := lsl.RunBuildNamespace(os.Args[2], os.Args[3], os.Args[4]); err != nil {
				lslog.Fatalf("%s", err)
			}
			return
		}
	}

	cli.Execute()
}
