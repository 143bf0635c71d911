// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package lsl

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/blenk92/lsl/internal/pkg/config"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/mount"
	"github.com/blenk92/lsl/internal/pkg/namespaces"
	"github.com/blenk92/lsl/internal/pkg/paths"
	"github.com/blenk92/lsl/internal/pkg/pin"
)

// spawnBuildNamespace re-execs the controller binary as the namespace
// builder for a single container, passing it just enough of the runtime
// paths to do its job without any shared memory or IPC besides argv.
func spawnBuildNamespace(execPath string, rt paths.Runtime, container string) (*exec.Cmd, error) {
	cmd := exec.Command(execPath, BuildNamespaceArg, rt.MountDir, rt.ConfigPath, container)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("lsl: spawning namespace builder for %q: %w", container, err)
	}
	return cmd, nil
}

// RunBuildNamespace is the namespace builder's entire body, executed when
// the controller binary is re-exec'd with BuildNamespaceArg. It implements
// §4.3 steps 2-3: spawn the pinner, unshare, release it, shape the new
// namespace, and pivot_root into it.
func RunBuildNamespace(mountDir, configPath, container string) error {
	subsystems, err := config.Load(configPath)
	if err != nil {
		return err
	}
	var sc config.SubsystemConfig
	found := false
	for _, s := range subsystems {
		if s.Name == container {
			sc, found = s, true
			break
		}
	}
	if !found {
		return fmt.Errorf("lsl: container %q not found in %s", container, configPath)
	}

	pinfile := filepath.Join(mountDir, container)
	f, err := os.OpenFile(pinfile, os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("lsl: creating pinfile %s: %w", pinfile, err)
	}
	f.Close()

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("lsl: resolving own executable path: %w", err)
	}

	pinner, err := pin.Spawn(execPath, pinfile)
	if err != nil {
		return err
	}

	if err := namespaces.UnshareMount(); err != nil {
		return errors.Wrapf(err, "container %q: unsharing mount namespace", container)
	}

	if err := pinner.Release(); err != nil {
		return err
	}
	if err := pinner.Wait(); err != nil {
		return errors.Wrapf(err, "container %q: pinning namespace", container)
	}

	return shapeNamespace(sc)
}

// shapeNamespace implements §4.3 step 3: detach mount propagation, bind
// mounts, virtual filesystems, and the final pivot_root.
func shapeNamespace(sc config.SubsystemConfig) error {
	if err := mount.SlaveRec("/"); err != nil {
		return err
	}
	if err := mount.Bind(sc.Path, sc.Path); err != nil {
		return err
	}

	for _, mp := range sc.MountPoints {
		target := filepath.Join(sc.Path, mp.Target)
		if err := ensureMountPoint(mp.Source, target); err != nil {
			lslog.Warningf("container %q: preparing mount point %s: %v", sc.Name, target, err)
			continue
		}
		if err := mount.Bind(mp.Source, target); err != nil {
			lslog.Warningf("container %q: %v", sc.Name, err)
		}
	}

	if err := bindRunUser(sc); err != nil {
		return fmt.Errorf("lsl: container %q: %w", sc.Name, err)
	}

	for _, vfs := range []struct{ fstype, rel string }{
		{"proc", "proc"},
		{"sysfs", "sys"},
		{"devpts", "dev/pts"},
		{"tmpfs", "dev/shm"},
		{"mqueue", "dev/mqueue"},
		{"hugetlbfs", "dev/hugepages"},
	} {
		target := filepath.Join(sc.Path, vfs.rel)
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("lsl: container %q: creating %s: %w", sc.Name, target, err)
		}
		if err := mount.Filesystem(vfs.fstype, target); err != nil {
			return fmt.Errorf("lsl: container %q: %w", sc.Name, err)
		}
	}

	oldRoot := filepath.Join(sc.Path, "oldRoot")
	if err := os.MkdirAll(oldRoot, 0o755); err != nil {
		return fmt.Errorf("lsl: container %q: creating %s: %w", sc.Name, oldRoot, err)
	}

	return mount.PivotRoot(sc.Path, oldRoot)
}

// ensureMountPoint creates target as a directory or an empty regular file,
// matching the kind of source, so the subsequent bind mount has something
// to land on.
func ensureMountPoint(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}
	if info.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// bindRunUser bind-mounts every /run/user/<uid> entry on the host onto the
// equivalent path under the container root. Failure here is fatal for the
// whole container (§4.3 step 3).
func bindRunUser(sc config.SubsystemConfig) error {
	const runUser = "/run/user"
	entries, err := os.ReadDir(runUser)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", runUser, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		source := filepath.Join(runUser, e.Name())
		target := filepath.Join(sc.Path, "run", "user", e.Name())
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		if err := mount.Bind(source, target); err != nil {
			return err
		}
	}
	return nil
}
