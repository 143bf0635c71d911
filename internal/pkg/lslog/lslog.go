// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package lslog implements the small leveled logger shared by the lsl
// controller and the executor. Diagnostics go to stderr; debug-mode mount
// traces go to stdout, matching the operational contract of the tools this
// package serves.
package lslog

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type level int

const (
	FatalLevel level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l level) String() string {
	switch l {
	case FatalLevel:
		return "FATAL"
	case ErrorLevel:
		return "ERROR"
	case WarnLevel:
		return "WARNING"
	case InfoLevel:
		return "INFO"
	case DebugLevel:
		return "DEBUG"
	default:
		return "LOG"
	}
}

var (
	loggerLevel = InfoLevel
	errWriter   = io.Writer(os.Stderr)
	dbgWriter   = io.Writer(os.Stdout)
)

// levelColors gives each level below debug its ANSI color, mirroring the
// teacher's messageColors map. Debug traces are left uncolored.
var levelColors = map[level]string{
	FatalLevel: "\x1b[31m",
	ErrorLevel: "\x1b[31m",
	WarnLevel:  "\x1b[33m",
	InfoLevel:  "\x1b[34m",
}

const colorReset = "\x1b[0m"

// SetDebug raises the logger to debug level, routing Debugf traces to
// stdout, when enabled is true; otherwise restores the default level.
func SetDebug(enabled bool) {
	if enabled {
		loggerLevel = DebugLevel
	} else {
		loggerLevel = InfoLevel
	}
}

func writef(w io.Writer, msgLevel level, format string, a ...interface{}) {
	if loggerLevel < msgLevel {
		return
	}
	message := strings.TrimRight(fmt.Sprintf(format, a...), "\n")
	color, reset := levelColors[msgLevel], colorReset
	if color == "" {
		reset = ""
	}
	fmt.Fprintf(w, "%s%-8s%s%s\n", color, msgLevel.String()+":", reset, message)
}

// Fatalf logs a FATAL-level message and terminates the process with exit
// code 1. Used by the controller's re-exec'd pinner and namespace-builder
// entry points for any failure, including capability/seccomp setup.
func Fatalf(format string, a ...interface{}) {
	writef(errWriter, FatalLevel, format, a...)
	os.Exit(1)
}

// Errorf logs an ERROR-level message without exiting.
func Errorf(format string, a ...interface{}) {
	writef(errWriter, ErrorLevel, format, a...)
}

// Warningf logs a WARNING-level message, used for the per-container and
// per-mount failures that degrade gracefully rather than abort.
func Warningf(format string, a ...interface{}) {
	writef(errWriter, WarnLevel, format, a...)
}

// Infof logs an INFO-level message.
func Infof(format string, a ...interface{}) {
	writef(errWriter, InfoLevel, format, a...)
}

// Debugf logs a DEBUG-level trace to stdout. Used for the mount(src, tgt,
// ...) = rc traces required under --debug.
func Debugf(format string, a ...interface{}) {
	writef(dbgWriter, DebugLevel, format, a...)
}

// SetWriters overrides the stderr/stdout destinations, returning the
// previous pair so tests can capture and later restore output.
func SetWriters(errW, dbgW io.Writer) (prevErr, prevDbg io.Writer) {
	prevErr, prevDbg = errWriter, dbgWriter
	if errW != nil {
		errWriter = errW
	}
	if dbgW != nil {
		dbgWriter = dbgW
	}
	return
}
