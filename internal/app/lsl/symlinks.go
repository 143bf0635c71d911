// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package lsl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blenk92/lsl/internal/pkg/config"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/paths"
)

// publishSymlinks implements §4.4: recreate rt.LinksDir and populate it
// with one <container>:<binary> symlink per published command, all
// pointing at the Executor.
func publishSymlinks(rt paths.Runtime, subsystems []config.SubsystemConfig) error {
	if err := os.RemoveAll(rt.LinksDir); err != nil {
		return fmt.Errorf("lsl: removing %s: %w", rt.LinksDir, err)
	}
	if err := os.MkdirAll(rt.LinksDir, 0o755); err != nil {
		return fmt.Errorf("lsl: creating %s: %w", rt.LinksDir, err)
	}

	for _, sc := range subsystems {
		for _, bin := range sc.Bins {
			hostPath := filepath.Join(sc.Path, bin)
			info, err := os.Stat(hostPath)
			if err != nil {
				lslog.Warningf("container %q: bin entry %q: %v, skipping", sc.Name, bin, err)
				continue
			}

			if info.IsDir() {
				entries, err := os.ReadDir(hostPath)
				if err != nil {
					lslog.Warningf("container %q: reading %s: %v", sc.Name, hostPath, err)
					continue
				}
				for _, e := range entries {
					if e.IsDir() {
						continue
					}
					linkCommand(rt, sc.Name, e.Name())
				}
				continue
			}

			linkCommand(rt, sc.Name, filepath.Base(bin))
		}
	}
	return nil
}

// linkCommand creates LINKSDIR/<name>:<binary> -> ExecutorPath, leaving any
// existing symlink of that name in place (idempotent, §4.4).
func linkCommand(rt paths.Runtime, name, binary string) {
	link := filepath.Join(rt.LinksDir, name+":"+binary)
	if _, err := os.Lstat(link); err == nil {
		return
	}
	if err := os.Symlink(rt.ExecutorPath, link); err != nil {
		lslog.Warningf("creating symlink %s: %v", link, err)
	}
}
