// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dervus/xivtool"
)

var (
	repoDir string
	outDir  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "xivtool",
	Short: "Inspect and export data from a SqPack repository",
	Long: `xivtool reads the packed asset archives of a SqPack repository
and exports record sheets as CSV and textures as PNG.

Point --repo at the "sqpack" directory of a game installation.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "r", "", "Path to the sqpack directory")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "Directory to write exported files into")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("repo")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openRepo() (*xivtool.Repository, error) {
	repo, err := xivtool.Open(repoDir, xivtool.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", repoDir, err)
	}
	return repo, nil
}

// requireOutDir is shared by the export commands, which have nowhere to
// write without it.
func requireOutDir() error {
	if outDir == "" {
		return fmt.Errorf("--out is required for export commands")
	}
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
