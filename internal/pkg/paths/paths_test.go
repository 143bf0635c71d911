// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package paths

import (
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	rt := Default()
	if rt.MountDir == "" || rt.LinksDir == "" || rt.ConfigPath == "" || rt.ExecutorPath == "" {
		t.Fatalf("Default() left a field empty: %+v", rt)
	}
}

func TestPinfile(t *testing.T) {
	rt := Runtime{MountDir: "/tmp/subsys"}
	got := rt.Pinfile("toolbox")
	want := filepath.Join("/tmp/subsys", "toolbox")
	if got != want {
		t.Errorf("Pinfile() = %q, want %q", got, want)
	}
}
