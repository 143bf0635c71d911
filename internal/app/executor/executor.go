// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package executor implements the setuid helper's state machine (§4.6):
// START -> CAPS_REDUCED -> NS_ENTERED -> UID_DROPPED -> RESOLVED -> EXEC.
// Every arrow is fatal on error; there is no recovery path once invoked.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/blenk92/lsl/internal/pkg/config"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/namespaces"
	"github.com/blenk92/lsl/internal/pkg/paths"
	"github.com/blenk92/lsl/internal/pkg/security/capabilities"
	"golang.org/x/sys/unix"
)

// Invocation is the resolved (container, binary, args) triple regardless
// of which of the two calling conventions was used.
type Invocation struct {
	Container string
	Binary    string
	Args      []string
}

// ParseInvocation implements §4.6 step 2: if argv[0] contains ':', split
// it on the first occurrence to obtain (container, binary); otherwise the
// explicit CLI form is used and argv[1]/argv[2] supply them.
func ParseInvocation(argv []string) (Invocation, error) {
	if len(argv) == 0 {
		return Invocation{}, fmt.Errorf("executor: empty argv")
	}

	progName := filepath.Base(argv[0])
	if idx := strings.Index(progName, ":"); idx >= 0 {
		return Invocation{
			Container: progName[:idx],
			Binary:    progName[idx+1:],
			Args:      argv[1:],
		}, nil
	}

	if len(argv) < 3 {
		return Invocation{}, fmt.Errorf("executor: usage: executor <container> <binary> [args...]")
	}
	return Invocation{
		Container: argv[1],
		Binary:    argv[2],
		Args:      argv[3:],
	}, nil
}

// Run drives the full state machine for inv and never returns on success:
// the final step replaces the process image via execve. A non-nil return
// means some step before EXEC failed.
func Run(rt paths.Runtime, inv Invocation) error {
	// START -> CAPS_REDUCED
	if err := capabilities.RestrictTo(capabilities.SYS_CHROOT, capabilities.SYS_ADMIN); err != nil {
		return fmt.Errorf("executor: %w", err)
	}

	pinfile := rt.Pinfile(inv.Container)
	if _, err := os.Stat(pinfile); err != nil {
		return fmt.Errorf("executor: container %q is not running: %w", inv.Container, err)
	}

	query, err := config.LoadQuery(rt.ConfigPath)
	if err != nil {
		return fmt.Errorf("executor: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("executor: getting working directory: %w", err)
	}
	relCwd := strings.TrimPrefix(cwd, "/")

	ruid, _, _, err := unix.Getresuid()
	if err != nil {
		return fmt.Errorf("executor: getresuid: %w", err)
	}
	rgid, _, _, err := unix.Getresgid()
	if err != nil {
		return fmt.Errorf("executor: getresgid: %w", err)
	}

	// CAPS_REDUCED -> NS_ENTERED
	if err := namespaces.EnterMountFile(pinfile); err != nil {
		return fmt.Errorf("executor: entering namespace of %q: %w", inv.Container, err)
	}

	// NS_ENTERED -> UID_DROPPED
	//
	// NO_NEW_PRIVS must not be set here: the setuid-root binary's drop to
	// the caller's real uid/gid is what clears ambient and effective
	// capabilities for a non-root caller, and that clearing only happens
	// when the kernel is still allowed to apply it.
	if err := unix.Setregid(rgid, rgid); err != nil {
		return fmt.Errorf("executor: setregid: %w", err)
	}
	if err := unix.Setreuid(ruid, ruid); err != nil {
		return fmt.Errorf("executor: setreuid: %w", err)
	}

	// UID_DROPPED -> RESOLVED
	program, argv, err := resolve(query, inv)
	if err != nil {
		return fmt.Errorf("executor: %w", err)
	}

	if envPath, ok := query.EnvPath(inv.Container); ok {
		if err := os.Setenv("PATH", envPath); err != nil {
			return fmt.Errorf("executor: setting PATH: %w", err)
		}
	}

	if err := os.Chdir(filepath.Join("/oldRoot", relCwd)); err != nil {
		lslog.Warningf("restoring working directory under /oldRoot: %v", err)
	}

	// RESOLVED -> EXEC
	env := os.Environ()
	if err := syscall.Exec(program, argv, env); err != nil {
		return fmt.Errorf("executor: exec %s: %w", program, err)
	}
	return nil
}

// resolve implements §4.6 steps 9 and 12: locate the binary inside the
// container's configured search paths and, if an interpreter is
// configured, rewrite program/argv to invoke it from the host's old root.
func resolve(query *config.Query, inv Invocation) (program string, argv []string, err error) {
	scriptPath := inv.Binary
	if !strings.HasPrefix(scriptPath, "/") {
		scriptPath, err = findInBins(query.Bins(inv.Container), inv.Binary)
		if err != nil {
			return "", nil, err
		}
	}

	program = scriptPath
	argv = append([]string{inv.Binary}, inv.Args...)

	if interp, ok := query.Interpreter(inv.Container); ok {
		argv = append([]string{inv.Binary, scriptPath}, inv.Args...)
		program = filepath.Join("/oldRoot", interp)
	}

	return program, argv, nil
}

// findInBins searches each configured bin path in order: a directory
// entry contributes every file whose basename matches binary; a file
// entry matches if its own basename does.
func findInBins(bins []string, binary string) (string, error) {
	for _, b := range bins {
		info, err := os.Stat(b)
		if err != nil {
			continue
		}
		if info.IsDir() {
			entries, err := os.ReadDir(b)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsDir() && e.Name() == binary {
					return filepath.Join(b, e.Name()), nil
				}
			}
			continue
		}
		if filepath.Base(b) == binary {
			return b, nil
		}
	}
	return "", fmt.Errorf("binary %q not found in configured search paths", binary)
}
