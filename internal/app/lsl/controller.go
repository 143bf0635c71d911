// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package lsl implements the controller's three operations (start, stop,
// relink) described in §4.3-§4.5: building and pinning a per-container mount
// namespace, publishing the command symlink farm, and tearing both down.
package lsl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blenk92/lsl/internal/pkg/config"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/mount"
	"github.com/blenk92/lsl/internal/pkg/paths"
)

// BuildNamespaceArg is the hidden argv[1] the controller binary recognises
// to run as a per-container namespace builder rather than the ordinary CLI.
// Start re-execs itself with this argument once per container so that the
// namespace-owning process is a distinct child, leaving the Controller
// itself in the host namespace (§4.3 step 2).
const BuildNamespaceArg = "__build-namespace"

// Start loads the configuration, builds and pins a mount namespace for
// every declared container, then publishes the symlink farm. It refuses to
// run if rt.MountDir already exists (S6: double-start rejection).
func Start(rt paths.Runtime) error {
	if _, err := os.Stat(rt.MountDir); err == nil {
		return fmt.Errorf("lsl: %s already exists; run 'lsl stop' first", rt.MountDir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("lsl: checking %s: %w", rt.MountDir, err)
	}

	subsystems, err := config.Load(rt.ConfigPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(rt.MountDir, 0o700); err != nil {
		return fmt.Errorf("lsl: creating %s: %w", rt.MountDir, err)
	}
	// mount(2) can only change the propagation of an existing mount point,
	// so self-bind rt.MountDir onto itself before marking it private.
	if err := mount.BindRec(rt.MountDir, rt.MountDir); err != nil {
		return fmt.Errorf("lsl: %w", err)
	}
	if err := mount.Private(rt.MountDir); err != nil {
		return fmt.Errorf("lsl: %w", err)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("lsl: resolving own executable path: %w", err)
	}

	for _, sc := range subsystems {
		if sc.Interpreter != "" {
			if err := copyInterpreter(sc); err != nil {
				lslog.Errorf("container %q: copying interpreter: %v, skipping", sc.Name, err)
				continue
			}
		}
		if err := buildNamespaceChild(execPath, rt, sc.Name); err != nil {
			lslog.Errorf("container %q: building namespace: %v, skipping", sc.Name, err)
			continue
		}
		lslog.Infof("container %q: namespace pinned at %s", sc.Name, rt.Pinfile(sc.Name))
	}

	return publishSymlinks(rt, subsystems)
}

// Stop unmounts and removes every pinned namespace file, then the symlink
// farm. Per-entry failures are logged as warnings; Stop always attempts
// every step (§4.5).
func Stop(rt paths.Runtime) error {
	entries, err := os.ReadDir(rt.MountDir)
	if err != nil {
		if os.IsNotExist(err) {
			lslog.Warningf("%s does not exist, nothing to stop", rt.MountDir)
		} else {
			lslog.Warningf("reading %s: %v", rt.MountDir, err)
		}
	}
	for _, e := range entries {
		p := filepath.Join(rt.MountDir, e.Name())
		if err := mount.Unmount(p); err != nil {
			lslog.Warningf("unmounting %s: %v", p, err)
		}
	}

	if err := mount.Unmount(rt.MountDir); err != nil {
		lslog.Warningf("unmounting %s: %v", rt.MountDir, err)
	}
	if err := os.RemoveAll(rt.MountDir); err != nil {
		lslog.Warningf("removing %s: %v", rt.MountDir, err)
	}
	if err := os.RemoveAll(rt.LinksDir); err != nil {
		lslog.Warningf("removing %s: %v", rt.LinksDir, err)
	}
	return nil
}

// Relink rebuilds the symlink farm from the current configuration without
// touching any live namespace. Safe to call repeatedly (§4.4 idempotence).
func Relink(rt paths.Runtime) error {
	subsystems, err := config.Load(rt.ConfigPath)
	if err != nil {
		return err
	}
	return publishSymlinks(rt, subsystems)
}

// copyInterpreter copies sc.Interpreter into the container at
// bins[0]/basename(interpreter), overwriting any existing file there.
func copyInterpreter(sc config.SubsystemConfig) error {
	target := sc.InterpreterTarget()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	src, err := os.Open(sc.Interpreter)
	if err != nil {
		return fmt.Errorf("opening %s: %w", sc.Interpreter, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to %s: %w", sc.Interpreter, target, err)
	}
	return nil
}

// buildNamespaceChild re-execs the controller binary with BuildNamespaceArg
// to build and pin container's namespace in a distinct child process, then
// waits for it.
func buildNamespaceChild(execPath string, rt paths.Runtime, container string) error {
	cmd, err := spawnBuildNamespace(execPath, rt, container)
	if err != nil {
		return err
	}
	return cmd.Wait()
}
