// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a small synthetic SqPack archive to
// disk, suitable for exercising the xivtool CLI without a game
// installation.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dervus/xivtool/internal/sqtest"
)

var outDir = flag.String("out", "testdata/sqpack", "directory to write the archive under")

func main() {
	flag.Parse()
	if err := run(*outDir); err != nil {
		fmt.Fprintln(os.Stderr, "gen-testdata:", err)
		os.Exit(1)
	}
}

func run(root string) error {
	ffxiv := filepath.Join(root, "ffxiv")
	if err := os.MkdirAll(ffxiv, 0o755); err != nil {
		return err
	}

	if err := writeExdPack(ffxiv); err != nil {
		return err
	}
	if err := writeUIPack(ffxiv); err != nil {
		return err
	}
	fmt.Println(root)
	return nil
}

// writeExdPack emits the record-database pack: a sheet listing plus a
// small Race sheet with an english page.
func writeExdPack(dir string) error {
	cols := []sqtest.Col{
		{Type: sqtest.TypeString, Offset: 0},
		{Type: sqtest.TypeUInt16, Offset: 4},
		{Type: sqtest.TypeBool, Offset: 6},
	}
	const rowSize = 8

	exh := sqtest.BuildExh(sqtest.SheetSpec{
		RowSize:  rowSize,
		RowCount: 3,
		Cols:     cols,
		Pages:    []sqtest.Page{{StartID: 1, RowCount: 3}},
		Locales:  []uint16{2}, // english
	})
	page := sqtest.BuildExd([]sqtest.ExdRow{
		{ID: 1, Subs: [][]byte{sqtest.RowBody(cols, rowSize, []any{"Hyur", uint16(101), false})}},
		{ID: 2, Subs: [][]byte{sqtest.RowBody(cols, rowSize, []any{"Elezen", uint16(102), false})}},
		{ID: 3, Subs: [][]byte{sqtest.RowBody(cols, rowSize, []any{"Lalafell", uint16(103), true})}},
	}, rowSize, false)

	b := sqtest.NewDatBuilder()
	listingOff := b.AddStandard([]byte("EXLT,2\r\nRace,28\r\n"), 0)
	exhOff := b.AddStandard(exh, 0)
	pageOff := b.AddStandard(page, 0)
	index := sqtest.BuildIndex2([]sqtest.IndexEntry{
		{Path: "exd/root.exl", Locator: sqtest.PackLocator(0, listingOff)},
		{Path: "exd/race.exh", Locator: sqtest.PackLocator(0, exhOff)},
		{Path: "exd/race_1_en.exd", Locator: sqtest.PackLocator(0, pageOff)},
	})

	if err := os.WriteFile(filepath.Join(dir, "0a0000.win32.index2"), index, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "0a0000.win32.dat0"), b.Bytes(), 0o644)
}

// writeUIPack emits the ui pack with one 8x8 gradient texture behind a
// segment-pair index.
func writeUIPack(dir string) error {
	const w, h = 8, 8
	pixels := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := pixels[(y*w+x)*4:]
			p[0] = byte(x * 255 / (w - 1))
			p[1] = byte(y * 255 / (h - 1))
			p[3] = 0xff
		}
	}

	b := sqtest.NewDatBuilder()
	texOff := b.AddTexture(5200, w, h, [][]byte{pixels})
	index := sqtest.BuildIndex1([]sqtest.IndexEntry{
		{Path: "ui/icon/000000/000001.tex", Locator: sqtest.PackLocator(0, texOff)},
	})

	if err := os.WriteFile(filepath.Join(dir, "060000.win32.index"), index, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "060000.win32.dat0"), b.Bytes(), 0o644)
}
