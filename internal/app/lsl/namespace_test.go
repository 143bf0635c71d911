// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package lsl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureMountPointDirectory(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "src")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("creating %s: %v", source, err)
	}
	target := filepath.Join(base, "dst", "nested")

	if err := ensureMountPoint(source, target); err != nil {
		t.Fatalf("ensureMountPoint() error = %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if !info.IsDir() {
		t.Error("target is not a directory")
	}
}

func TestEnsureMountPointFile(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "src.conf")
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	target := filepath.Join(base, "dst", "dst.conf")

	if err := ensureMountPoint(source, target); err != nil {
		t.Fatalf("ensureMountPoint() error = %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if info.IsDir() {
		t.Error("target is a directory, want regular file")
	}
}

func TestEnsureMountPointMissingSource(t *testing.T) {
	base := t.TempDir()
	if err := ensureMountPoint(filepath.Join(base, "missing"), filepath.Join(base, "dst")); err == nil {
		t.Error("ensureMountPoint() error = nil, want error for missing source")
	}
}
