// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package paths carries the small set of process-wide filesystem locations
// the controller and executor agree on. They are injected at startup rather
// than compiled in as constants, so tests can point them at a scratch
// directory.
package paths

import "path/filepath"

// Runtime is the set of host paths that make up the persistent,
// process-wide state described by the runtime directory layout.
type Runtime struct {
	// MountDir holds one pinned namespace file per live container.
	MountDir string
	// LinksDir holds the <container>:<binary> symlink farm.
	LinksDir string
	// ConfigPath is the INI file describing the containers.
	ConfigPath string
	// ExecutorPath is the absolute path every published symlink targets.
	ExecutorPath string
}

// Default returns the stock locations used when no overriding flags are
// supplied on the command line.
func Default() Runtime {
	return Runtime{
		MountDir:     "/tmp/subsys/",
		LinksDir:     "/usr/local/bin/subsys/",
		ConfigPath:   "/etc/subsys.conf",
		ExecutorPath: "/usr/local/libexec/subsys/executor",
	}
}

// Pinfile returns the path to the pinned namespace file for container name.
func (r Runtime) Pinfile(name string) string {
	return filepath.Join(r.MountDir, name)
}
