// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dervus/xivtool"
	"github.com/dervus/xivtool/exd"
)

var (
	exportFilter string
	exportLocale string
)

func init() {
	exdCmd := &cobra.Command{
		Use:   "exd",
		Short: "Export record sheets to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportExd(cmd)
		},
	}
	exdCmd.Flags().StringVarP(&exportFilter, "filter", "f", "", `Export only one sheet by name (e.g. "ModelChara")`)
	exdCmd.Flags().StringVarP(&exportLocale, "locale", "l", "en", "Locale to export (ja, en, de, fr, chs, cht, ko)")
	exportCmd.AddCommand(exdCmd)
}

func runExportExd(cmd *cobra.Command) error {
	if err := requireOutDir(); err != nil {
		return err
	}
	locale, err := exd.ParseLocale(exportLocale)
	if err != nil {
		return err
	}
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	names := []string{exportFilter}
	if exportFilter == "" {
		if names, err = readRootList(repo); err != nil {
			return err
		}
	}

	// a bad sheet only loses that sheet's file; the rest still export
	logger := newLogger()
	var failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		name := name
		g.Go(func() error {
			out, err := exportOneSheet(repo, name, locale)
			if err != nil {
				failed.Add(1)
				logger.Error("sheet export failed", "name", name, "err", err)
				return nil
			}
			logger.Info("exported sheet", "name", name, "out", out)
			return nil
		})
	}
	_ = g.Wait()
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d sheets failed to export", n, len(names))
	}
	return nil
}

// exportOneSheet writes one record sheet as CSV under the output
// directory and returns the path it wrote.
func exportOneSheet(repo *xivtool.Repository, name string, locale exd.Locale) (string, error) {
	sheet, err := exd.OpenSheet(repo, name, locale)
	if err != nil {
		return "", err
	}
	rows, err := sheet.Collect()
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(outDir, filepath.FromSlash(name)+".csv")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sheetHeader(sheet, rows)); err != nil {
		return "", err
	}
	subrows := sheet.Header().Variant == exd.VariantSubRows
	record := make([]string, 0, 2+len(sheet.Header().Columns))
	for _, row := range rows {
		record = record[:0]
		record = append(record, strconv.FormatUint(uint64(row.ID), 10))
		if subrows {
			record = append(record, strconv.FormatUint(uint64(row.SubID), 10))
		}
		for _, v := range row.Values {
			record = append(record, v.String())
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, f.Close()
}

// sheetHeader builds the CSV header row: the key columns followed by
// the type tag of each declared column.
func sheetHeader(sheet *exd.Sheet, rows []exd.Row) []string {
	header := []string{"id"}
	if sheet.Header().Variant == exd.VariantSubRows {
		header = append(header, "subid")
	}
	if len(rows) > 0 {
		for _, v := range rows[0].Values {
			header = append(header, v.Kind().TypeTag())
		}
		return header
	}
	for _, col := range sheet.Header().Columns {
		header = append(header, col.Kind.TypeTag())
	}
	return header
}
