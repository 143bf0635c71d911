// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package config loads the INI configuration file that declares the
// containers lsl manages. One section per container; see SubsystemConfig
// for the recognised keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blenk92/lsl/internal/pkg/lslog"
	"gopkg.in/ini.v1"
)

// MountPoint is a single host->container bind mount.
type MountPoint struct {
	Source string
	Target string
}

// SubsystemConfig is one validated container declaration.
type SubsystemConfig struct {
	Name        string
	Path        string
	MountPoints []MountPoint
	Bins        []string
	Interpreter string // empty if unset
	EnvPath     string // empty if unset
}

// defaultMountPoints are prepended to every container, per §3.
func defaultMountPoints() []MountPoint {
	return []MountPoint{
		{Source: "/dev", Target: "/dev"},
		{Source: "/run", Target: "/run"},
	}
}

// Load parses path and returns the validated container list for the
// controller. A missing or non-regular file is fatal (returns an error);
// per-container validation problems are logged as warnings and drop only
// the offending container or mount entry.
func Load(path string) ([]SubsystemConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config: %s is not a regular file", path)
	}

	// ';' separates list entries (bins, mnt), so it must not start an
	// inline comment.
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	var subsystems []SubsystemConfig
	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		if strings.ContainsAny(name, ":/") {
			lslog.Warningf("container %q: name must not contain ':' or path separators, skipping", name)
			continue
		}

		sc, ok := parseSection(name, section)
		if !ok {
			continue
		}
		subsystems = append(subsystems, sc)
	}
	return subsystems, nil
}

func parseSection(name string, section *ini.Section) (SubsystemConfig, bool) {
	sc := SubsystemConfig{
		Name:        name,
		MountPoints: defaultMountPoints(),
	}

	path := section.Key("path").String()
	if path == "" {
		lslog.Warningf("container %q: missing required key 'path', skipping", name)
		return sc, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		lslog.Warningf("container %q: path %q is not a directory, skipping", name, path)
		return sc, false
	}
	sc.Path = path

	if binsRaw := section.Key("bins").String(); binsRaw != "" {
		sc.Bins = splitNonEmpty(binsRaw, ";")
	}
	if len(sc.Bins) == 0 {
		lslog.Warningf("container %q: missing required key 'bins', skipping", name)
		return sc, false
	}

	if mntRaw := section.Key("mnt").String(); mntRaw != "" {
		for _, entry := range splitNonEmpty(mntRaw, ";") {
			src, dst := entry, entry
			if idx := strings.Index(entry, ":"); idx >= 0 {
				src, dst = entry[:idx], entry[idx+1:]
			}
			if _, err := os.Stat(src); err != nil {
				lslog.Warningf("container %q: mnt source %q does not exist, skipping this mount", name, src)
				continue
			}
			sc.MountPoints = append(sc.MountPoints, MountPoint{Source: src, Target: dst})
		}
	}

	sc.Interpreter = section.Key("interpreter").String()
	sc.EnvPath = section.Key("envPath").String()

	return sc, true
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// InterpreterTarget returns the host-side destination path an interpreter
// is copied to before namespace creation: bins[0]/basename(interpreter).
func (sc SubsystemConfig) InterpreterTarget() string {
	return filepath.Join(sc.Path, sc.Bins[0], filepath.Base(sc.Interpreter))
}

// Query is a lighter-weight read-only view over the config file used by
// the executor, which only ever needs a handful of per-container keys and
// must not re-validate paths (it queries after having already entered the
// container's mount namespace).
type Query struct {
	file *ini.File
}

// LoadQuery loads path for executor-side lookups.
func LoadQuery(path string) (*Query, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &Query{file: f}, nil
}

// Bins returns the semicolon-separated bins list for container, in order.
func (q *Query) Bins(container string) []string {
	sec, err := q.file.GetSection(container)
	if err != nil {
		return nil
	}
	return splitNonEmpty(sec.Key("bins").String(), ";")
}

// Interpreter returns the configured interpreter path for container, if any.
func (q *Query) Interpreter(container string) (string, bool) {
	sec, err := q.file.GetSection(container)
	if err != nil {
		return "", false
	}
	v := sec.Key("interpreter").String()
	return v, v != ""
}

// EnvPath returns the configured PATH override for container, if any.
func (q *Query) EnvPath(container string) (string, bool) {
	sec, err := q.file.GetSection(container)
	if err != nil {
		return "", false
	}
	v := sec.Key("envPath").String()
	return v, v != ""
}
