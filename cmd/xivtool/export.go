// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import "github.com/spf13/cobra"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export things from the SqPack repository",
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
