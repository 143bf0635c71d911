// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blenk92/lsl/internal/pkg/test/tool"
)

func TestBindMount(t *testing.T) {
	tool.Root(t)
	tool.MountNamespaces(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("creating %s: %v", src, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dst, err)
	}
	marker := filepath.Join(src, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing marker: %v", err)
	}

	if err := Bind(src, dst); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer Unmount(dst)

	if _, err := os.Stat(filepath.Join(dst, "marker")); err != nil {
		t.Errorf("marker not visible through bind mount: %v", err)
	}
}
