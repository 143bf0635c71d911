// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package executor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blenk92/lsl/internal/pkg/config"
)

func TestParseInvocationSymlinkForm(t *testing.T) {
	inv, err := ParseInvocation([]string{"/usr/local/bin/subsys/toolbox:busybox", "echo", "hi"})
	if err != nil {
		t.Fatalf("ParseInvocation() error = %v", err)
	}
	want := Invocation{Container: "toolbox", Binary: "busybox", Args: []string{"echo", "hi"}}
	if !reflect.DeepEqual(inv, want) {
		t.Errorf("ParseInvocation() = %+v, want %+v", inv, want)
	}
}

func TestParseInvocationExplicitForm(t *testing.T) {
	inv, err := ParseInvocation([]string{"executor", "toolbox", "/bin/busybox", "ls", "/"})
	if err != nil {
		t.Fatalf("ParseInvocation() error = %v", err)
	}
	want := Invocation{Container: "toolbox", Binary: "/bin/busybox", Args: []string{"ls", "/"}}
	if !reflect.DeepEqual(inv, want) {
		t.Errorf("ParseInvocation() = %+v, want %+v", inv, want)
	}
}

func TestParseInvocationExplicitFormMissingArgs(t *testing.T) {
	if _, err := ParseInvocation([]string{"executor", "toolbox"}); err == nil {
		t.Error("ParseInvocation() error = nil, want error for missing binary")
	}
}

func TestFindInBinsDirectory(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", binDir, err)
	}
	target := filepath.Join(binDir, "busybox")
	if err := os.WriteFile(target, nil, 0o755); err != nil {
		t.Fatalf("writing %s: %v", target, err)
	}

	got, err := findInBins([]string{binDir}, "busybox")
	if err != nil {
		t.Fatalf("findInBins() error = %v", err)
	}
	if got != target {
		t.Errorf("findInBins() = %q, want %q", got, target)
	}
}

func TestFindInBinsFileEntry(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "myscript")
	if err := os.WriteFile(target, nil, 0o755); err != nil {
		t.Fatalf("writing %s: %v", target, err)
	}

	got, err := findInBins([]string{target}, "myscript")
	if err != nil {
		t.Fatalf("findInBins() error = %v", err)
	}
	if got != target {
		t.Errorf("findInBins() = %q, want %q", got, target)
	}
}

func TestFindInBinsNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := findInBins([]string{dir}, "missing"); err == nil {
		t.Error("findInBins() error = nil, want error for missing binary")
	}
}

func TestResolveAbsoluteBinary(t *testing.T) {
	q, err := config.LoadQuery(writeQueryConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadQuery() error = %v", err)
	}
	program, argv, err := resolve(q, Invocation{Container: "toolbox", Binary: "/bin/ls", Args: []string{"/"}})
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if program != "/bin/ls" {
		t.Errorf("program = %q, want /bin/ls", program)
	}
	if !reflect.DeepEqual(argv, []string{"/bin/ls", "/"}) {
		t.Errorf("argv = %v", argv)
	}
}

func TestResolveWithInterpreter(t *testing.T) {
	cfgPath := writeQueryConfig(t, "interpreter = /usr/bin/python3\n")
	q, err := config.LoadQuery(cfgPath)
	if err != nil {
		t.Fatalf("LoadQuery() error = %v", err)
	}
	program, argv, err := resolve(q, Invocation{Container: "toolbox", Binary: "/srv/tb/bin/myscript.py"})
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if program != filepath.Join("/oldRoot", "/usr/bin/python3") {
		t.Errorf("program = %q", program)
	}
	want := []string{"/srv/tb/bin/myscript.py", "/srv/tb/bin/myscript.py"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestResolveWithInterpreterAndBareBinary(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", binDir, err)
	}
	scriptPath := filepath.Join(binDir, "myscript.py")
	if err := os.WriteFile(scriptPath, nil, 0o755); err != nil {
		t.Fatalf("writing %s: %v", scriptPath, err)
	}

	cfgPath := filepath.Join(dir, "subsys.conf")
	cfg := "[toolbox]\nbins = " + binDir + "\ninterpreter = /usr/bin/python3\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	q, err := config.LoadQuery(cfgPath)
	if err != nil {
		t.Fatalf("LoadQuery() error = %v", err)
	}
	program, argv, err := resolve(q, Invocation{Container: "toolbox", Binary: "myscript.py"})
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if program != filepath.Join("/oldRoot", "/usr/bin/python3") {
		t.Errorf("program = %q", program)
	}
	want := []string{"myscript.py", scriptPath}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func writeQueryConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "subsys.conf")
	cfg := "[toolbox]\nbins = /bin\n" + extra
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return cfgPath
}
