// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Command executor is the setuid helper invoked through <container>:<binary>
// symlinks (or explicitly as "executor <container> <binary> [args...]").
// It does not use cobra: its argv[0] is an arbitrary symlink name that
// cobra's command matching cannot accommodate (§6).
package main

import (
	"os"

	"github.com/blenk92/lsl/internal/app/executor"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/paths"
)

func main() {
	inv, err := executor.ParseInvocation(os.Args)
	if err != nil {
		lslog.Errorf("%s", err)
		os.Exit(1)
	}

	if err := executor.Run(paths.Default(), inv); err != nil {
		lslog.Errorf("%s", err)
		os.Exit(1)
	}
}
