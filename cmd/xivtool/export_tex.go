// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dervus/xivtool/tex"
)

var texFormat string

func init() {
	texCmd := &cobra.Command{
		Use:   "tex <path>",
		Short: "Export a texture as an image file",
		Long: `Decodes a texture file inside the SqPack repository and writes it
under the output directory, mirroring the archive path.

Example:
  xivtool -r /game/sqpack -o out export tex ui/loadingimage/-nowloading_base.tex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportTex(cmd, args[0])
		},
	}
	texCmd.Flags().StringVarP(&texFormat, "format", "f", "png", "Output image format (png, jpg)")
	exportCmd.AddCommand(texCmd)
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func runExportTex(cmd *cobra.Command, path string) error {
	if err := requireOutDir(); err != nil {
		return err
	}
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	path = strings.ToLower(path)
	t, err := repo.ReadTexture(path)
	if err != nil {
		return err
	}
	img, err := tex.Decode(t)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	outPath := filepath.Join(outDir, filepath.FromSlash(base+"."+texFormat))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := encodeImage(f, img, texFormat); err != nil {
		return fmt.Errorf("encoding %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outPath)
	return nil
}
