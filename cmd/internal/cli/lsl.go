// Copyright (c) lsl contributors.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cli wires up the lsl controller's cobra command tree: the root
// command plus start/stop/relink subcommands, mirroring the teacher's
// cmd/internal/cli layout at a scale matching this controller's surface.
package cli

import (
	"fmt"
	"os"

	"github.com/blenk92/lsl/internal/app/lsl"
	"github.com/blenk92/lsl/internal/pkg/lslog"
	"github.com/blenk92/lsl/internal/pkg/paths"
	"github.com/blenk92/lsl/internal/pkg/security/capabilities"
	"github.com/blenk92/lsl/internal/pkg/security/seccomp"
	"github.com/spf13/cobra"
)

var (
	debug          bool
	disableSeccomp bool
	configPath     string
	mountDir       string
	linksDir       string
	executorPath   string
)

func runtimePaths() paths.Runtime {
	rt := paths.Default()
	if configPath != "" {
		rt.ConfigPath = configPath
	}
	if mountDir != "" {
		rt.MountDir = mountDir
	}
	if linksDir != "" {
		rt.LinksDir = linksDir
	}
	if executorPath != "" {
		rt.ExecutorPath = executorPath
	}
	return rt
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	lslog.SetDebug(debug)

	if err := capabilities.RestrictTo(capabilities.SYS_ADMIN); err != nil {
		return fmt.Errorf("restricting capabilities: %w", err)
	}

	if !disableSeccomp {
		if err := seccomp.Install(); err != nil {
			return fmt.Errorf("installing seccomp filter: %w", err)
		}
	}
	return nil
}

// rootCmd is the base lsl command.
var rootCmd = &cobra.Command{
	Use:               "lsl",
	Short:             "manage pinned mount-namespace subsystem containers",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: persistentPreRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "build and pin a mount namespace for every configured container",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsl.Start(runtimePaths())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "unpin every namespace and remove the published symlinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsl.Stop(runtimePaths())
	},
}

var relinkCmd = &cobra.Command{
	Use:   "relink",
	Short: "republish the command symlink farm from the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsl.Relink(runtimePaths())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "print debugging information, including mount() traces")
	rootCmd.PersistentFlags().BoolVarP(&disableSeccomp, "disable-seccomp", "s", false, "skip installing the seccomp allow-list filter")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the subsystem configuration file")
	rootCmd.PersistentFlags().StringVar(&mountDir, "mountdir", "", "override the pinned-namespace directory")
	rootCmd.PersistentFlags().StringVar(&linksDir, "linksdir", "", "override the published symlink directory")
	rootCmd.PersistentFlags().StringVar(&executorPath, "executor", "", "override the path to the executor binary")

	rootCmd.AddCommand(startCmd, stopCmd, relinkCmd)
}

// Execute runs the lsl root command, exiting the process with code 1 on
// any error (§6: exit codes).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		lslog.Errorf("%s", err)
		os.Exit(1)
	}
}
