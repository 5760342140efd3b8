// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dervus/xivtool"
)

const rootListPath = "exd/root.exl"

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List things within the SqPack repository",
	}
	listCmd.AddCommand(&cobra.Command{
		Use:   "exd",
		Short: "List all record sheets referenced by " + rootListPath,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListExd(cmd)
		},
	})
	rootCmd.AddCommand(listCmd)
}

// readRootList returns the sheet names declared in exd/root.exl. The
// list is CSV-shaped: a format tag line followed by name,id records.
func readRootList(repo *xivtool.Repository) ([]string, error) {
	raw, err := repo.ReadFile(rootListPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rootListPath, err)
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rootListPath, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing %s: empty list", rootListPath)
	}

	names := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 || rec[0] == "" {
			return nil, fmt.Errorf("parsing %s: record without a sheet name", rootListPath)
		}
		names = append(names, rec[0])
	}
	return names, nil
}

func runListExd(cmd *cobra.Command) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	names, err := readRootList(repo)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
