// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package pin implements the namespace-pinning handshake described in
// §4.3 step 2: a sibling process ("the pinner") that stays behind in the
// namespace-owning child's original mount namespace long enough to
// bind-mount that child's /proc/<pid>/ns/mnt onto a stable file, after the
// child has unshared into its own namespace.
//
// The C original spawns the pinner with a raw clone(CLONE_VM) sharing
// virtual memory; Go cannot do that, so this package substitutes a
// re-exec'd sibling process synchronised over a pipe. The happens-before
// required by §5 (pinner's mount must follow the child's unshare) is
// preserved because the pinner blocks on a pipe read that the child only
// satisfies after unshare returns.
package pin

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/blenk92/lsl/internal/pkg/mount"
)

// ReexecArg is the hidden argv[1] the controller binary recognises to run
// as the pinner rather than the ordinary CLI.
const ReexecArg = "__pin-namespace"

// Handle tracks a spawned pinner's process and the pipe used to release it.
type Handle struct {
	cmd   *exec.Cmd
	relFd *os.File
}

// Spawn starts the pinner as a child of the calling process, inheriting a
// pipe it will block on. Must be called before the caller unshares its
// mount namespace.
func Spawn(execPath, pinfile string) (*Handle, error) {
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pin: creating handshake pipe: %w", err)
	}

	cmd := exec.Command(execPath, ReexecArg, pinfile)
	cmd.ExtraFiles = []*os.File{readEnd}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		readEnd.Close()
		writeEnd.Close()
		return nil, fmt.Errorf("pin: spawning pinner: %w", err)
	}
	readEnd.Close()

	return &Handle{cmd: cmd, relFd: writeEnd}, nil
}

// Release signals the pinner that the namespace has been unshared and it
// is now safe to perform the pinning bind mount.
func (h *Handle) Release() error {
	_, err := h.relFd.Write([]byte{1})
	h.relFd.Close()
	if err != nil {
		return fmt.Errorf("pin: releasing pinner: %w", err)
	}
	return nil
}

// Wait blocks until the pinner has completed the pinning bind mount.
func (h *Handle) Wait() error {
	if err := h.cmd.Wait(); err != nil {
		return fmt.Errorf("pin: pinner failed: %w", err)
	}
	return nil
}

// Run is the pinner's entire body, executed when the controller binary is
// re-exec'd with ReexecArg. fd 3 is the inherited pipe read end; the
// namespace to pin belongs to the pinner's parent (the namespace-owning
// child), matching the C original's use of getppid().
func Run(pinfile string) error {
	relFd := os.NewFile(3, "pin-release")
	if relFd == nil {
		return fmt.Errorf("pin: missing handshake pipe on fd 3")
	}
	defer relFd.Close()

	buf := make([]byte, 1)
	if _, err := relFd.Read(buf); err != nil {
		return fmt.Errorf("pin: waiting for unshare signal: %w", err)
	}

	nsPath := fmt.Sprintf("/proc/%d/ns/mnt", os.Getppid())
	if err := mount.Bind(nsPath, pinfile); err != nil {
		return fmt.Errorf("pin: pinning namespace at %s: %w", pinfile, err)
	}
	return nil
}
